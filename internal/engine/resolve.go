package engine

import (
	"context"
	"fmt"

	"github.com/nootmuskaat/pm/internal/storage"
)

// resolveIssue returns the issue an action targets: the explicit id when
// given, otherwise the user's checked-out issue.
func resolveIssue(ctx context.Context, tx storage.Transaction, inv Invocation, explicit *int64) (int64, error) {
	if explicit != nil {
		return requireIssue(ctx, tx, *explicit)
	}
	id, ok, err := tx.GetCheckout(ctx, inv.User)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrMissingIssueID
	}
	return requireIssue(ctx, tx, id)
}

// requireIssue fails with ErrInvalidIssue unless the issue exists.
func requireIssue(ctx context.Context, tx storage.Transaction, id int64) (int64, error) {
	exists, err := tx.IssueExists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %d", ErrInvalidIssue, id)
	}
	return id, nil
}
