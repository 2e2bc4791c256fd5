package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/nootmuskaat/pm/internal/editsurface"
	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// parseOpenStatus validates a status for New and Status. Closing goes
// through Close so that the closed flag and time stay consistent.
func parseOpenStatus(s string) (types.Status, error) {
	st, err := types.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if st == types.StatusClosed {
		return "", fmt.Errorf("%w: status %q cannot be set directly; use close", ErrInvalidParameter, st)
	}
	return st, nil
}

// resolveAssignee maps the unassign sentinel to nil.
func resolveAssignee(s *string) *string {
	if s == nil || *s == types.UnassignSentinel {
		return nil
	}
	return types.StringPtr(*s)
}

// normalizeTitle trims a given title. The result must be a single
// non-empty line that the edit surface can read back.
func normalizeTitle(s string) (string, error) {
	title := strings.TrimSpace(s)
	switch {
	case title == "":
		return "", fmt.Errorf("%w: title is empty", ErrInvalidParameter)
	case strings.ContainsAny(title, "\r\n"):
		return "", fmt.Errorf("%w: title must be a single line", ErrInvalidParameter)
	case editsurface.IsMarker(title):
		return "", fmt.Errorf("%w: title %q is reserved", ErrInvalidParameter, title)
	}
	return title, nil
}

// New creates an issue. Unset fields take their defaults: title
// "untitled issue", status open, unassigned, no description. Title and
// description are stored trimmed, as Modify reads them back.
func (e *Engine) New(ctx context.Context, inv Invocation, p Params) (*Result, error) {
	issue := &types.Issue{
		Status:      types.StatusOpen,
		CreatedBy:   inv.User,
		CreatedTime: inv.Time,
		AssignedTo:  resolveAssignee(p.AssignedTo),
	}
	if p.Title != nil {
		title, err := normalizeTitle(*p.Title)
		if err != nil {
			return nil, err
		}
		issue.Title = title
	}
	if p.Description != nil {
		if desc := strings.TrimSpace(*p.Description); desc != "" {
			issue.Description = types.StringPtr(desc)
		}
	}
	if p.Status != nil {
		st, err := parseOpenStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		issue.Status = st
	}
	issue.SetDefaults()
	tags := normalizeTags(p.Tags)
	for _, tag := range tags {
		if strings.ContainsAny(tag, ",\r\n") || editsurface.IsMarker(tag) {
			return nil, fmt.Errorf("%w: tag %q cannot be edited back", ErrInvalidParameter, tag)
		}
	}

	err := e.run(ctx, ActionNew, inv, func(tx storage.Transaction) error {
		id, err := tx.CreateIssue(ctx, issue)
		if err != nil {
			return err
		}
		return reconcileTags(ctx, tx, id, DiffTags(nil, tags))
	})
	if err != nil {
		return nil, err
	}
	issue.Tags = tags

	e.logger.Debug("created issue", "issue_id", issue.ID, "tags", len(tags))
	return &Result{Action: ActionNew, IssueID: issue.ID, Issue: issue}, nil
}
