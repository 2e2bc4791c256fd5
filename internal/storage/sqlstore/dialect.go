package sqlstore

import (
	"context"
	"database/sql"
	"time"
)

// dialect captures everything that differs between the SQL backends.
// Queries that are identical across backends live with the operations
// that use them.
type dialect interface {
	name() string

	// schema returns the DDL statements that create all tables and indexes.
	// Every statement must be idempotent.
	schema() []string

	// migrations returns upgrade steps for databases created by older
	// versions of the tool. Every step must be idempotent.
	migrations() []migration

	// begin starts a write transaction on conn, waiting up to timeout for
	// competing writers.
	begin(ctx context.Context, conn *sql.Conn, timeout time.Duration) error

	// rowID is the expression selecting the surrogate key of the
	// issue_history and comments tables.
	rowID() string

	insertTagIgnore() string
	upsertCheckout() string

	beforeClose(db *sql.DB) error
}

// migration is a named idempotent schema upgrade.
type migration struct {
	name string
	fn   func(ctx context.Context, db *sql.DB) error
}
