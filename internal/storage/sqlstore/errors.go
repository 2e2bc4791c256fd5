package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nootmuskaat/pm/internal/storage"
)

// wrapDBError wraps a database error with operation context
// It converts sql.ErrNoRows to storage.ErrNotFound for consistent error handling
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapDBErrorf wraps a database error with formatted operation context
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return wrapDBError(fmt.Sprintf(format, args...), err)
}

// issueNotFound builds the error for an operation targeting a missing issue.
func issueNotFound(op string, id int64) error {
	return fmt.Errorf("%s: issue %d: %w", op, id, storage.ErrNotFound)
}
