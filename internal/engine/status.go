package engine

import (
	"context"
	"fmt"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// Status moves an open issue to another non-closed status. A closed issue
// must be reopened first; only Close and Reopen manage the closed flag and
// closed time.
func (e *Engine) Status(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	if p.Status == nil || *p.Status == "" {
		return nil, fmt.Errorf("%w: status", ErrMissingParameter)
	}
	newStatus, err := parseOpenStatus(*p.Status)
	if err != nil {
		return nil, err
	}

	return e.transition(ctx, ActionStatus, inv, p, func(current *string) (*string, map[types.Field]any, error) {
		if types.StringValue(current) == string(types.StatusClosed) {
			return nil, nil, fmt.Errorf("%w: issue is closed; use reopen", ErrInvalidParameter)
		}
		return current, map[types.Field]any{
			types.FieldStatus: newStatus,
		}, nil
	})
}

// Close closes an issue, stamping the closed time with the invocation time.
func (e *Engine) Close(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	return e.transition(ctx, ActionClose, inv, p, func(current *string) (*string, map[types.Field]any, error) {
		return current, map[types.Field]any{
			types.FieldStatus:     types.StatusClosed,
			types.FieldClosed:     true,
			types.FieldClosedTime: inv.Time,
		}, nil
	})
}

// Reopen reopens an issue. The history record's old value is "closed"
// unless the policy asks for the actual prior status.
func (e *Engine) Reopen(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	return e.transition(ctx, ActionReopen, inv, p, func(current *string) (*string, map[types.Field]any, error) {
		old := types.StringPtr(string(types.StatusClosed))
		if e.policy.ReopenFromActual {
			old = current
		}
		return old, map[types.Field]any{
			types.FieldStatus:     types.StatusOpen,
			types.FieldClosed:     false,
			types.FieldClosedTime: nil,
		}, nil
	})
}

// transition is the shared body of the status-changing actions. change
// receives the current status and returns the old value to record and the
// updates to apply, or an error to refuse the change; updates must include
// FieldStatus.
func (e *Engine) transition(ctx context.Context, action Action, inv Invocation, p Params,
	change func(current *string) (*string, map[types.Field]any, error)) (*Result, error) {
	res := &Result{Action: action}
	err := e.run(ctx, action, inv, func(tx storage.Transaction) error {
		id, err := resolveIssue(ctx, tx, inv, p.IssueID)
		if err != nil {
			return err
		}
		res.IssueID = id

		current, err := tx.GetIssueField(ctx, id, types.FieldStatus)
		if err != nil {
			return err
		}
		oldValue, updates, err := change(current)
		if err != nil {
			return err
		}
		newValue := types.StringPtr(string(updates[types.FieldStatus].(types.Status)))

		if res.Comment, err = optionalComment(ctx, tx, inv, id, p); err != nil {
			return err
		}
		if err := record(ctx, tx, inv, id, types.FieldStatus, oldValue, newValue); err != nil {
			return err
		}
		if err := tx.UpdateIssue(ctx, id, updates); err != nil {
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
