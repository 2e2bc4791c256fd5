package engine

import (
	"context"
	"fmt"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// Assign sets or clears an issue's assignee. Both the issue id and the
// assignee must be given explicitly; "-" unassigns.
func (e *Engine) Assign(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	if p.IssueID == nil {
		return nil, fmt.Errorf("%w: issue id", ErrMissingParameter)
	}
	if p.AssignedTo == nil || *p.AssignedTo == "" {
		return nil, fmt.Errorf("%w: assignee", ErrMissingParameter)
	}
	assignee := resolveAssignee(p.AssignedTo)

	res := &Result{Action: ActionAssign}
	err := e.run(ctx, ActionAssign, inv, func(tx storage.Transaction) error {
		id, err := requireIssue(ctx, tx, *p.IssueID)
		if err != nil {
			return err
		}
		res.IssueID = id

		current, err := tx.GetIssueField(ctx, id, types.FieldAssignedTo)
		if err != nil {
			return err
		}
		if err := record(ctx, tx, inv, id, e.policy.AssignField, current, assignee); err != nil {
			return err
		}
		if err := tx.UpdateIssue(ctx, id, map[types.Field]any{types.FieldAssignedTo: assignee}); err != nil {
			return err
		}
		res.Issue, err = tx.GetIssue(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
