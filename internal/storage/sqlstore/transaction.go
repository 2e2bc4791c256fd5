package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// Verify txStorage implements storage.Transaction at compile time
var _ storage.Transaction = (*txStorage)(nil)

// querier is satisfied by *sql.DB and *sql.Conn, so the helpers in this
// package serve both transactional and read-only callers.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txStorage implements storage.Transaction on a dedicated connection with
// an open transaction.
type txStorage struct {
	conn   *sql.Conn
	parent *Store
}

// RunInTransaction executes fn within a database transaction.
//
// Transaction lifecycle:
//  1. Acquire dedicated connection from pool
//  2. Begin the write transaction, retrying while another writer holds the lock
//  3. Execute fn with the Transaction interface
//  4. On success: COMMIT
//  5. On error or panic: ROLLBACK
//
// If fn panics, the transaction is rolled back and the panic is re-raised.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for transaction: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := s.dialect.begin(ctx, conn, s.lockTimeout); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Background context so the rollback completes even if ctx is cancelled
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			panic(r)
		}
	}()

	if err := fn(&txStorage{conn: conn, parent: s}); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// CreateIssue inserts the issue and its tags, assigning issue.ID.
func (t *txStorage) CreateIssue(ctx context.Context, issue *types.Issue) (int64, error) {
	if err := issue.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	id, err := insertIssue(ctx, t.conn, issue)
	if err != nil {
		return 0, wrapDBError("insert issue", err)
	}
	issue.ID = id

	for _, tag := range issue.Tags {
		if err := t.AddTag(ctx, id, tag); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// GetIssue reads an issue, including its tags, inside the transaction.
func (t *txStorage) GetIssue(ctx context.Context, id int64) (*types.Issue, error) {
	return getIssue(ctx, t.conn, id)
}

// GetIssueField reads a single text column of an issue.
func (t *txStorage) GetIssueField(ctx context.Context, id int64, field types.Field) (*string, error) {
	return getIssueField(ctx, t.conn, id, field)
}

// UpdateIssue sets the given columns on an issue. Only columns in
// allowedUpdateFields are accepted.
func (t *txStorage) UpdateIssue(ctx context.Context, id int64, updates map[types.Field]any) error {
	return updateIssue(ctx, t.conn, id, updates)
}

// IssueExists reports whether an issue with the id exists.
func (t *txStorage) IssueExists(ctx context.Context, id int64) (bool, error) {
	return issueExists(ctx, t.conn, id)
}

// AppendHistory records one field change and assigns rec.ID.
func (t *txStorage) AppendHistory(ctx context.Context, rec *types.HistoryRecord) error {
	res, err := t.conn.ExecContext(ctx, `
		INSERT INTO issue_history (issue_id, username, timestamp, field, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.IssueID, rec.Username, toEpoch(rec.Timestamp), string(rec.Field),
		nullString(rec.OldValue), nullString(rec.NewValue))
	if err != nil {
		return wrapDBErrorf(err, "record history for issue %d", rec.IssueID)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// GetTags returns the issue's tags in sorted order.
func (t *txStorage) GetTags(ctx context.Context, issueID int64) ([]string, error) {
	return getTags(ctx, t.conn, issueID)
}

// AddTag associates tag with the issue. Adding an existing tag is a no-op.
func (t *txStorage) AddTag(ctx context.Context, issueID int64, tag string) error {
	if _, err := t.conn.ExecContext(ctx, t.parent.dialect.insertTagIgnore(), issueID, tag); err != nil {
		return wrapDBErrorf(err, "add tag %q to issue %d", tag, issueID)
	}
	return nil
}

// RemoveTag removes tag from the issue. Removing an absent tag is a no-op.
func (t *txStorage) RemoveTag(ctx context.Context, issueID int64, tag string) error {
	if _, err := t.conn.ExecContext(ctx, `DELETE FROM tags WHERE issue_id = ? AND tag = ?`, issueID, tag); err != nil {
		return wrapDBErrorf(err, "remove tag %q from issue %d", tag, issueID)
	}
	return nil
}

// AddComment attaches a comment to an existing issue and assigns
// comment.ID.
func (t *txStorage) AddComment(ctx context.Context, comment *types.Comment) (int64, error) {
	exists, err := issueExists(ctx, t.conn, comment.IssueID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, issueNotFound("add comment", comment.IssueID)
	}

	res, err := t.conn.ExecContext(ctx, `
		INSERT INTO comments (issue_id, created_time, created_by, comment_text)
		VALUES (?, ?, ?, ?)
	`, comment.IssueID, toEpoch(comment.CreatedTime), comment.CreatedBy, comment.Text)
	if err != nil {
		return 0, wrapDBErrorf(err, "add comment to issue %d", comment.IssueID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapDBError("get comment ID", err)
	}
	comment.ID = id
	return id, nil
}

// GetCheckout returns the issue the user has checked out, if any.
func (t *txStorage) GetCheckout(ctx context.Context, username string) (int64, bool, error) {
	return getCheckout(ctx, t.conn, username)
}

// SetCheckout records issueID as the user's checked-out issue, replacing
// any previous checkout.
func (t *txStorage) SetCheckout(ctx context.Context, username string, issueID int64) error {
	if _, err := t.conn.ExecContext(ctx, t.parent.dialect.upsertCheckout(), username, issueID); err != nil {
		return wrapDBErrorf(err, "check out issue %d for %s", issueID, username)
	}
	return nil
}
