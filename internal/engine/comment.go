package engine

import (
	"context"
	"fmt"

	"github.com/nootmuskaat/pm/internal/storage"
)

// Comment attaches a comment to an issue. The issue itself is not changed
// and no history is written.
func (e *Engine) Comment(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	if p.Comment == nil || *p.Comment == "" {
		return nil, fmt.Errorf("%w: comment", ErrMissingParameter)
	}

	res := &Result{Action: ActionComment}
	err := e.run(ctx, ActionComment, inv, func(tx storage.Transaction) error {
		id, err := resolveIssue(ctx, tx, inv, p.IssueID)
		if err != nil {
			return err
		}
		res.IssueID = id
		res.Comment, err = optionalComment(ctx, tx, inv, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
