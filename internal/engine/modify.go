package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/nootmuskaat/pm/internal/editsurface"
	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// Modify lets the user edit an issue's title, description and tags in the
// configured editor.
//
// The current values are read in one transaction and the editor runs with
// no transaction open. The changes are then written in a second
// transaction, diffed against the values current at that point. Title and
// description changes get one history record each; the tag set is
// reconciled whenever the edit was readable. Result.Updates is empty when
// neither title nor description changed.
func (e *Engine) Modify(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	if e.editor == nil {
		return nil, fmt.Errorf("%w: no editor configured", ErrEditorFailed)
	}

	var (
		id     int64
		before editsurface.Surface
	)
	err := e.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		var err error
		if id, err = resolveIssue(ctx, tx, inv, p.IssueID); err != nil {
			return err
		}
		issue, err := tx.GetIssue(ctx, id)
		if err != nil {
			return err
		}
		before = editsurface.Surface{
			Title:       issue.Title,
			Description: issue.DescriptionText(),
			Tags:        issue.Tags,
		}
		return nil
	})
	if err != nil {
		return nil, classify(ActionModify, err)
	}

	edited, err := e.editor.Edit(ctx, editsurface.Render(before))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEditorFailed, err)
	}
	after, err := editsurface.Parse(edited)
	if err != nil {
		return nil, err
	}

	res := &Result{Action: ActionModify, IssueID: id, Updates: map[types.Field]string{}}
	err = e.run(ctx, ActionModify, inv, func(tx storage.Transaction) error {
		if _, err := requireIssue(ctx, tx, id); err != nil {
			return err
		}
		current, err := tx.GetIssue(ctx, id)
		if err != nil {
			return err
		}

		// Parse trims both fields, so untrimmed stored values compare
		// trimmed.
		updates := map[types.Field]any{}
		if after.Title != strings.TrimSpace(current.Title) {
			if err := record(ctx, tx, inv, id, types.FieldTitle,
				types.StringPtr(current.Title), types.StringPtr(after.Title)); err != nil {
				return err
			}
			updates[types.FieldTitle] = after.Title
			res.Updates[types.FieldTitle] = after.Title
		}
		if after.Description != strings.TrimSpace(current.DescriptionText()) {
			var newDesc *string
			if after.Description != "" {
				newDesc = types.StringPtr(after.Description)
			}
			if err := record(ctx, tx, inv, id, types.FieldDescription, current.Description, newDesc); err != nil {
				return err
			}
			updates[types.FieldDescription] = newDesc
			res.Updates[types.FieldDescription] = after.Description
		}
		if len(updates) > 0 {
			if err := tx.UpdateIssue(ctx, id, updates); err != nil {
				return err
			}
		}

		diff := DiffTags(current.Tags, after.Tags)
		if err := reconcileTags(ctx, tx, id, diff); err != nil {
			return err
		}
		if e.policy.TrackTags && !diff.Empty() {
			if err := record(ctx, tx, inv, id, types.FieldTags, joinTags(current.Tags), joinTags(after.Tags)); err != nil {
				return err
			}
		}

		res.Issue, err = tx.GetIssue(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
