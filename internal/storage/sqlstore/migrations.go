package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// runMigrations applies every migration of the dialect in order. Each
// migration checks whether it is needed, so running them on every open is
// safe.
func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	for _, m := range d.migrations() {
		if err := m.fn(ctx, db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
	}
	return nil
}

var sqliteMigrations = []migration{
	{"unique_tags", migrateUniqueTags},
	{"unique_checkouts", migrateUniqueCheckouts},
}

func sqliteIndexExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	return n > 0, nil
}

// migrateUniqueTags drops duplicate (issue_id, tag) rows, keeping the
// oldest, then enforces uniqueness with an index.
func migrateUniqueTags(ctx context.Context, db *sql.DB) error {
	exists, err := sqliteIndexExists(ctx, db, "idx_tags_issue_tag")
	if err != nil || exists {
		return err
	}
	return execInTx(ctx, db,
		`DELETE FROM tags WHERE rowid NOT IN (
			SELECT MIN(rowid) FROM tags GROUP BY issue_id, tag
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_issue_tag ON tags(issue_id, tag)`,
	)
}

// migrateUniqueCheckouts keeps the most recently written checkout per user.
func migrateUniqueCheckouts(ctx context.Context, db *sql.DB) error {
	exists, err := sqliteIndexExists(ctx, db, "idx_checked_out_username")
	if err != nil || exists {
		return err
	}
	return execInTx(ctx, db,
		`DELETE FROM checked_out WHERE rowid NOT IN (
			SELECT MAX(rowid) FROM checked_out GROUP BY username
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_checked_out_username ON checked_out(username)`,
	)
}

func execInTx(ctx context.Context, db *sql.DB, stmts ...string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
