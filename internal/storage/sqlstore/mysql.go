package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
)

// ServerConfig addresses a MySQL-compatible server (MySQL, MariaDB, or a
// Dolt sql-server).
type ServerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Defaults for ServerConfig fields left empty.
const (
	DefaultServerHost     = "127.0.0.1"
	DefaultServerPort     = 3306
	DefaultServerUser     = "root"
	DefaultServerDatabase = "pm"
)

var databaseNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func (c ServerConfig) withDefaults() ServerConfig {
	if c.Host == "" {
		c.Host = DefaultServerHost
	}
	if c.Port == 0 {
		c.Port = DefaultServerPort
	}
	if c.User == "" {
		c.User = DefaultServerUser
	}
	if c.Database == "" {
		c.Database = DefaultServerDatabase
	}
	return c
}

// DSN builds a go-sql-driver/mysql data source name. An empty database
// connects without selecting one.
func (c ServerConfig) DSN(database string) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// UPDATE must report matched rows, not changed rows, so that a no-op
	// update of an existing issue is not mistaken for a missing one.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// NewServer connects to a MySQL-compatible server, creating the database
// and schema if needed.
func NewServer(ctx context.Context, sc ServerConfig, lockTimeout time.Duration) (*Store, error) {
	sc = sc.withDefaults()
	if !databaseNameRe.MatchString(sc.Database) {
		return nil, fmt.Errorf("invalid database name %q: only letters, digits and underscores are allowed", sc.Database)
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	if err := ensureServerDatabase(ctx, sc, lockTimeout); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", sc.DSN(sc.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	addr := net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port)) + "/" + sc.Database
	return newStore(ctx, db, mysqlDialect{}, addr, lockTimeout)
}

// ensureServerDatabase creates the target database, retrying while the
// server comes up.
func ensureServerDatabase(ctx context.Context, sc ServerConfig, timeout time.Duration) error {
	db, err := sql.Open("mysql", sc.DSN(""))
	if err != nil {
		return fmt.Errorf("failed to open server connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = timeout
	err = backoff.Retry(func() error {
		// #nosec G202 -- database name is validated against databaseNameRe
		_, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS `"+sc.Database+"`")
		if err != nil && isRetryableError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", sc.Database, err)
	}
	return nil
}

// isRetryableError returns true if the error is a transient connection error.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"lost connection",
		"gone away",
		"i/o timeout",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

type mysqlDialect struct{}

func (mysqlDialect) name() string { return BackendMySQL }

func (mysqlDialect) schema() []string { return mysqlSchema }

func (mysqlDialect) migrations() []migration { return nil }

func (mysqlDialect) rowID() string { return "id" }

func (mysqlDialect) insertTagIgnore() string {
	return `INSERT IGNORE INTO tags (issue_id, tag) VALUES (?, ?)`
}

func (mysqlDialect) upsertCheckout() string {
	return `INSERT INTO checked_out (username, issue_id) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE issue_id = VALUES(issue_id)`
}

// begin starts the transaction, retrying transient connection failures.
// Lock waits themselves are handled by the server's innodb_lock_wait_timeout.
func (mysqlDialect) begin(ctx context.Context, conn *sql.Conn, timeout time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = timeout
	return backoff.Retry(func() error {
		_, err := conn.ExecContext(ctx, "START TRANSACTION")
		if err != nil && isRetryableError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

func (mysqlDialect) beforeClose(*sql.DB) error { return nil }
