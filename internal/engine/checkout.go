package engine

import (
	"context"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// Checkout makes an issue the user's implicit target for later actions,
// replacing any previous checkout.
func (e *Engine) Checkout(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	if p.IssueID == nil {
		return nil, ErrMissingIssueID
	}

	res := &Result{Action: ActionCheckout}
	err := e.run(ctx, ActionCheckout, inv, func(tx storage.Transaction) error {
		id, err := requireIssue(ctx, tx, *p.IssueID)
		if err != nil {
			return err
		}
		res.IssueID = id
		return tx.SetCheckout(ctx, inv.User, id)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Current returns the user's checked-out issue.
func (e *Engine) Current(ctx context.Context, inv Invocation) (*types.Issue, error) {
	id, ok, err := e.store.GetCheckout(ctx, inv.User)
	if err != nil {
		return nil, classify(ActionCheckout, err)
	}
	if !ok {
		return nil, ErrMissingIssueID
	}
	issue, err := e.store.GetIssue(ctx, id)
	if err != nil {
		return nil, classify(ActionCheckout, err)
	}
	return issue, nil
}
