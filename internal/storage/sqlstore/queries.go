package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nootmuskaat/pm/internal/types"
)

// GetIssue retrieves an issue with its tags.
func (s *Store) GetIssue(ctx context.Context, id int64) (*types.Issue, error) {
	return getIssue(ctx, s.db, id)
}

// GetTags returns the tags of an issue in sorted order.
func (s *Store) GetTags(ctx context.Context, issueID int64) ([]string, error) {
	return getTags(ctx, s.db, issueID)
}

// GetCheckout returns the issue the user has checked out, if any.
func (s *Store) GetCheckout(ctx context.Context, username string) (int64, bool, error) {
	return getCheckout(ctx, s.db, username)
}

// ListIssues returns issues matching filter, newest first. Closed issues
// are excluded unless filter.IncludeClosed is set or filter.Status asks
// for them. Tags are not loaded.
func (s *Store) ListIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error) {
	var (
		where []string
		args  []any
	)

	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	} else if !filter.IncludeClosed {
		where = append(where, "closed = 0")
	}
	if filter.AssignedTo != nil {
		where = append(where, "assigned_to = ?")
		args = append(args, *filter.AssignedTo)
	}
	if filter.CreatedAfter != nil {
		where = append(where, "created_time >= ?")
		args = append(args, toEpoch(*filter.CreatedAfter))
	}
	for _, tag := range filter.Tags {
		where = append(where, "issue_id IN (SELECT issue_id FROM tags WHERE tag = ?)")
		args = append(args, tag)
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_time DESC, issue_id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list issues", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, wrapDBError("scan issue", err)
		}
		issues = append(issues, issue)
	}
	return issues, wrapDBError("iterate issues", rows.Err())
}

// GetComments returns the comments of an issue, oldest first.
func (s *Store) GetComments(ctx context.Context, issueID int64) ([]*types.Comment, error) {
	rowID := s.dialect.rowID()
	// #nosec G202 -- rowID is a dialect constant
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+rowID+`, issue_id, created_by, created_time, comment_text
		FROM comments
		WHERE issue_id = ?
		ORDER BY created_time ASC, `+rowID+` ASC
	`, issueID)
	if err != nil {
		return nil, wrapDBErrorf(err, "get comments of issue %d", issueID)
	}
	defer func() { _ = rows.Close() }()

	comments := []*types.Comment{}
	for rows.Next() {
		var (
			c       types.Comment
			created int64
		)
		if err := rows.Scan(&c.ID, &c.IssueID, &c.CreatedBy, &created, &c.Text); err != nil {
			return nil, wrapDBError("scan comment", err)
		}
		c.CreatedTime = fromEpoch(created)
		comments = append(comments, &c)
	}
	return comments, wrapDBError("iterate comments", rows.Err())
}

// GetHistory returns the audit records of an issue in the order they were
// written.
func (s *Store) GetHistory(ctx context.Context, issueID int64) ([]*types.HistoryRecord, error) {
	rowID := s.dialect.rowID()
	// #nosec G202 -- rowID is a dialect constant
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+rowID+`, issue_id, username, timestamp, field, old_value, new_value
		FROM issue_history
		WHERE issue_id = ?
		ORDER BY timestamp ASC, `+rowID+` ASC
	`, issueID)
	if err != nil {
		return nil, wrapDBErrorf(err, "get history of issue %d", issueID)
	}
	defer func() { _ = rows.Close() }()

	records := []*types.HistoryRecord{}
	for rows.Next() {
		var (
			rec      types.HistoryRecord
			ts       int64
			field    string
			oldValue sql.NullString
			newValue sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.IssueID, &rec.Username, &ts, &field, &oldValue, &newValue); err != nil {
			return nil, wrapDBError("scan history", err)
		}
		rec.Timestamp = fromEpoch(ts)
		rec.Field = types.Field(field)
		if oldValue.Valid {
			rec.OldValue = types.StringPtr(oldValue.String)
		}
		if newValue.Valid {
			rec.NewValue = types.StringPtr(newValue.String)
		}
		records = append(records, &rec)
	}
	return records, wrapDBError("iterate history", rows.Err())
}
