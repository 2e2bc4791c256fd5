package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// lookupIssue resolves an issue id outside a transaction, for read-only
// commands.
func (e *Engine) lookupIssue(ctx context.Context, inv Invocation, explicit *int64) (int64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	id, ok, err := e.store.GetCheckout(ctx, inv.User)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrMissingIssueID
	}
	return id, nil
}

// Details loads an issue with its comments and history. Without an
// explicit id the checked-out issue is used.
func (e *Engine) Details(ctx context.Context, inv Invocation, explicit *int64) (*types.IssueDetails, error) {
	id, err := e.lookupIssue(ctx, inv, explicit)
	if err != nil {
		return nil, classify("", err)
	}

	var d types.IssueDetails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		issue, err := e.store.GetIssue(gctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrInvalidIssue, id)
		}
		d.Issue = issue
		return err
	})
	g.Go(func() error {
		comments, err := e.store.GetComments(gctx, id)
		d.Comments = comments
		return err
	})
	g.Go(func() error {
		history, err := e.store.GetHistory(gctx, id)
		d.History = history
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classify("", err)
	}
	return &d, nil
}

// History returns the ledger of an issue, oldest first.
func (e *Engine) History(ctx context.Context, inv Invocation, explicit *int64) ([]*types.HistoryRecord, error) {
	d, err := e.Details(ctx, inv, explicit)
	if err != nil {
		return nil, err
	}
	return d.History, nil
}

// List returns issues matching filter.
func (e *Engine) List(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error) {
	issues, err := e.store.ListIssues(ctx, filter)
	if err != nil {
		return nil, classify("", err)
	}
	return issues, nil
}
