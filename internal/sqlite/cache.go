package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"citybites/internal/cache"
)

// Cache is a cache.Cache persisted in the cache_entries table
type Cache struct {
	store *Store
}

var _ cache.Cache = (*Cache)(nil)

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	query := `SELECT value FROM cache_entries WHERE key = ? AND expires_at > ?`

	var value []byte
	err := c.store.db.QueryRowContext(ctx, query, key, c.store.now().UnixNano()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	return value, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return &cache.ErrInvalidTTL{Key: key, TTL: ttl}
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	query := `INSERT OR REPLACE INTO cache_entries (key, value, expires_at, created_at)
	          VALUES (?, ?, ?, ?)`

	now := c.store.now()
	if value == nil {
		value = []byte{}
	}
	_, err := c.store.db.ExecContext(ctx, query, key, value, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}

func (c *Cache) Purge(ctx context.Context) (int, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	res, err := c.store.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", c.store.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged cache entries: %w", err)
	}
	return int(n), nil
}
