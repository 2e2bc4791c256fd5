// Package sqlstore implements the storage interface on database/sql.
//
// Two dialects are supported: SQLite through the pure-Go (WASM) driver,
// which is the default single-file backend, and MySQL, which also covers a
// Dolt sql-server. Both share every query in this package; the dialect only
// supplies DDL, upsert syntax, and how a write transaction is begun.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nootmuskaat/pm/internal/storage"
)

// Verify Store implements storage.Store at compile time
var _ storage.Store = (*Store)(nil)

// DefaultLockTimeout bounds how long a writer waits for a competing
// process to release the database.
const DefaultLockTimeout = 30 * time.Second

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Store implements storage.Store
type Store struct {
	db          *sql.DB
	dialect     dialect
	path        string
	lockTimeout time.Duration
	closed      atomic.Bool // Tracks whether Close() has been called
}

// Config selects and configures a backend.
type Config struct {
	Backend     string // BackendSQLite (default) or BackendMySQL
	Path        string // SQLite database file, or ":memory:"
	Server      ServerConfig
	LockTimeout time.Duration
}

// Open opens the backend described by cfg, creating the schema if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return NewSQLite(ctx, cfg.Path, cfg.LockTimeout)
	case BackendMySQL:
		return NewServer(ctx, cfg.Server, cfg.LockTimeout)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: sqlite, mysql)", cfg.Backend)
	}
}

// newStore finishes construction shared by every dialect: ping, schema,
// migrations.
func newStore(ctx context.Context, db *sql.DB, d dialect, path string, lockTimeout time.Duration) (*Store, error) {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	if err := runMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:          db,
		dialect:     d,
		path:        path,
		lockTimeout: lockTimeout,
	}, nil
}

// Close closes the database connection. Calls after the first are no-ops.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.dialect.beforeClose(s.db); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

// Path returns the database file path, or the server address for the
// MySQL backend.
func (s *Store) Path() string {
	return s.path
}

// Backend reports which dialect the store speaks.
func (s *Store) Backend() string {
	return s.dialect.name()
}

// UnderlyingDB returns the underlying *sql.DB connection.
//
// Tests use it to inspect raw rows. Do not call Close() on it; the Store
// owns the connection lifecycle.
func (s *Store) UnderlyingDB() *sql.DB {
	return s.db
}
