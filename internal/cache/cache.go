// Package cache defines the keyed, TTL-bound cache used by the orchestration
// layer to remember geocoding, place search and route results.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque values under string keys until their TTL elapses
type Cache interface {
	// Get returns the value for key. ok is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key for ttl. A non-positive ttl is rejected.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Purge removes expired entries and returns how many were removed.
	Purge(ctx context.Context) (int, error)
}

// GetJSON reads key and decodes it into dst
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// ErrInvalidTTL is returned by Set for a non-positive TTL
type ErrInvalidTTL struct {
	Key string
	TTL time.Duration
}

func (e *ErrInvalidTTL) Error() string {
	return fmt.Sprintf("invalid ttl %v for cache key %s", e.TTL, e.Key)
}
