package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	// Import SQLite driver
	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"
)

// setupWASMCache configures WASM compilation caching to reduce SQLite startup time.
// Returns the cache directory path (empty string if using in-memory cache).
//
// Cache behavior:
//   - Location: ~/.cache/pm/wasm/ (platform-specific via os.UserCacheDir)
//   - Version management: wazero keys the cache by its own version
//   - Fallback: Uses in-memory cache if filesystem cache creation fails
func setupWASMCache() string {
	cacheDir := ""
	if userCache, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(userCache, "pm", "wasm")
	}

	var cache wazero.CompilationCache
	if cacheDir != "" {
		if c, err := wazero.NewCompilationCacheWithDir(cacheDir); err == nil {
			cache = c
		}
	}

	if cache == nil {
		cache = wazero.NewCompilationCache()
		cacheDir = ""
	}

	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)

	return cacheDir
}

func init() {
	// Every pm invocation opens the database once; without the cache each
	// process pays the full WASM compile.
	_ = setupWASMCache()
}

// NewSQLite opens (creating if necessary) a SQLite database at path.
func NewSQLite(ctx context.Context, path string, lockTimeout time.Duration) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	var connStr string
	if path == ":memory:" {
		// Private in-memory database; the pool is pinned to one connection
		// below so every statement sees the same data.
		connStr = "file::memory:?mode=memory&_pragma=foreign_keys(ON)&_time_format=sqlite"
	} else if strings.HasPrefix(path, "file:") {
		connStr = path
		if !strings.Contains(path, "_pragma=foreign_keys") {
			sep := "?"
			if strings.Contains(path, "?") {
				sep = "&"
			}
			connStr += sep + "_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_time_format=sqlite"
		}
	} else {
		// Ensure directory exists for file-based databases
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	isInMemory := path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))
	if isInMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		// 1 writer + N readers
		db.SetMaxOpenConns(runtime.NumCPU() + 1)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(0)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	absPath := path
	if !isInMemory && !strings.HasPrefix(path, "file:") {
		absPath, err = filepath.Abs(path)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
	}

	return newStore(ctx, db, sqliteDialect{inMemory: isInMemory}, absPath, lockTimeout)
}

type sqliteDialect struct {
	inMemory bool
}

func (sqliteDialect) name() string { return BackendSQLite }

func (sqliteDialect) schema() []string { return sqliteSchema }

func (sqliteDialect) migrations() []migration { return sqliteMigrations }

func (sqliteDialect) rowID() string { return "rowid" }

func (sqliteDialect) insertTagIgnore() string {
	return `INSERT OR IGNORE INTO tags (issue_id, tag) VALUES (?, ?)`
}

func (sqliteDialect) upsertCheckout() string {
	return `INSERT INTO checked_out (username, issue_id) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET issue_id = excluded.issue_id`
}

// begin issues BEGIN IMMEDIATE so the write lock is taken up front rather
// than on the first write, retrying with exponential backoff while another
// process holds it.
func (sqliteDialect) begin(ctx context.Context, conn *sql.Conn, timeout time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err == nil {
			return nil
		}
		if isBusyError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

// beforeClose checkpoints the WAL so writes are in the main database file
// before the next invocation opens it.
func (d sqliteDialect) beforeClose(db *sql.DB) error {
	if d.inMemory {
		return nil
	}
	_, _ = db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return nil
}

// isBusyError reports whether err means another connection holds the lock.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sqlite3.BUSY) || errors.Is(err, sqlite3.LOCKED) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
