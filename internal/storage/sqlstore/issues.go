package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// allowedUpdateFields maps the fields UpdateIssue accepts to their
// columns. Column names in UPDATE statements come only from this map.
var allowedUpdateFields = map[types.Field]string{
	types.FieldTitle:       "title",
	types.FieldDescription: "description",
	types.FieldStatus:      "status",
	types.FieldClosed:      "closed",
	types.FieldClosedTime:  "closed_time",
	types.FieldAssignedTo:  "assigned_to",
}

// readableTextFields maps the fields GetIssueField can read.
var readableTextFields = map[types.Field]string{
	types.FieldTitle:       "title",
	types.FieldDescription: "description",
	types.FieldStatus:      "status",
	types.FieldAssignedTo:  "assigned_to",
	types.FieldCreatedBy:   "created_by",
}

const issueColumns = `issue_id, title, description, status, closed, closed_time, assigned_to, created_by, created_time`

func toEpoch(t time.Time) int64 {
	return t.Unix()
}

func fromEpoch(n int64) time.Time {
	return time.Unix(n, 0).UTC()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullEpoch(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toEpoch(*t), Valid: true}
}

func insertIssue(ctx context.Context, q querier, issue *types.Issue) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO issues (title, description, status, closed, closed_time, assigned_to, created_by, created_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, issue.Title, nullString(issue.Description), string(issue.Status), issue.Closed,
		nullEpoch(issue.ClosedTime), nullString(issue.AssignedTo), issue.CreatedBy, toEpoch(issue.CreatedTime))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*types.Issue, error) {
	var (
		issue       types.Issue
		description sql.NullString
		status      string
		closedTime  sql.NullInt64
		assignedTo  sql.NullString
		createdTime int64
	)
	err := row.Scan(&issue.ID, &issue.Title, &description, &status, &issue.Closed,
		&closedTime, &assignedTo, &issue.CreatedBy, &createdTime)
	if err != nil {
		return nil, err
	}
	issue.Status = types.Status(status)
	issue.CreatedTime = fromEpoch(createdTime)
	if description.Valid {
		issue.Description = types.StringPtr(description.String)
	}
	if assignedTo.Valid {
		issue.AssignedTo = types.StringPtr(assignedTo.String)
	}
	if closedTime.Valid {
		t := fromEpoch(closedTime.Int64)
		issue.ClosedTime = &t
	}
	return &issue, nil
}

func getIssue(ctx context.Context, q querier, id int64) (*types.Issue, error) {
	row := q.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE issue_id = ?`, id)
	issue, err := scanIssue(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get issue %d", id)
	}
	if issue.Tags, err = getTags(ctx, q, id); err != nil {
		return nil, err
	}
	return issue, nil
}

func getIssueField(ctx context.Context, q querier, id int64, field types.Field) (*string, error) {
	column, ok := readableTextFields[field]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", field, storage.ErrInvalidField)
	}
	var value sql.NullString
	// #nosec G202 -- column comes from readableTextFields
	err := q.QueryRowContext(ctx, `SELECT `+column+` FROM issues WHERE issue_id = ?`, id).Scan(&value)
	if err != nil {
		return nil, wrapDBErrorf(err, "get %s of issue %d", field, id)
	}
	if !value.Valid {
		return nil, nil
	}
	return &value.String, nil
}

// updateValue converts an update value to its column representation.
func updateValue(field types.Field, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return val, nil
	case *string:
		return nullString(val), nil
	case types.Status:
		return string(val), nil
	case bool:
		return val, nil
	case time.Time:
		return toEpoch(val), nil
	case *time.Time:
		return nullEpoch(val), nil
	default:
		return nil, fmt.Errorf("unsupported value %T for field %s", v, field)
	}
}

func updateIssue(ctx context.Context, q querier, id int64, updates map[types.Field]any) error {
	if len(updates) == 0 {
		return nil
	}

	fields := make([]types.Field, 0, len(updates))
	for field := range updates {
		if _, ok := allowedUpdateFields[field]; !ok {
			return fmt.Errorf("update %s: %w", field, storage.ErrInvalidField)
		}
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	setClauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, field := range fields {
		value, err := updateValue(field, updates[field])
		if err != nil {
			return err
		}
		setClauses = append(setClauses, allowedUpdateFields[field]+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	// #nosec G201 -- column names come from allowedUpdateFields
	query := fmt.Sprintf("UPDATE issues SET %s WHERE issue_id = ?", strings.Join(setClauses, ", "))
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDBErrorf(err, "update issue %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("check rows affected", err)
	}
	if n == 0 {
		return issueNotFound("update issue", id)
	}
	return nil
}

func issueExists(ctx context.Context, q querier, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues WHERE issue_id = ?`, id).Scan(&n)
	if err != nil {
		return false, wrapDBErrorf(err, "check issue %d", id)
	}
	return n > 0, nil
}

func getTags(ctx context.Context, q querier, issueID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT tag FROM tags WHERE issue_id = ? ORDER BY tag`, issueID)
	if err != nil {
		return nil, wrapDBErrorf(err, "get tags of issue %d", issueID)
	}
	defer func() { _ = rows.Close() }()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, wrapDBError("scan tag", err)
		}
		tags = append(tags, tag)
	}
	return tags, wrapDBError("iterate tags", rows.Err())
}

func getCheckout(ctx context.Context, q querier, username string) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT issue_id FROM checked_out WHERE username = ?`, username).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapDBErrorf(err, "get checkout for %s", username)
	}
	return id, true, nil
}
