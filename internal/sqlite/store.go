package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DefaultDBFileName is the database file name inside the app directory
const DefaultDBFileName = "citybites.db"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite-backed store for cached lookups and route run history
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time

	cache     *Cache
	routeRuns *RouteRunRepository
}

// New opens (or creates) the SQLite database at dbPath and applies pending
// migrations
func New(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Printf("Opening SQLite database at: %s", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:  db,
		now: time.Now,
	}

	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store.cache = &Cache{store: store}
	store.routeRuns = &RouteRunRepository{store: store}

	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	log.Printf("SQLite schema ready: applied=%d version=%d", len(results), version)
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		// Checkpoint WAL before closing
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Cache returns the persistent TTL cache
func (s *Store) Cache() *Cache { return s.cache }

// RouteRuns returns the route run history repository
func (s *Store) RouteRuns() *RouteRunRepository { return s.routeRuns }
