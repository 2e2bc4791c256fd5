package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nootmuskaat/pm/internal/engine"
	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

func TestAssign(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{})

	res, err := e.Assign(ctx, alice, engine.Params{IssueID: &id, AssignedTo: ptr("bob")})
	require.NoError(t, err)
	assert.Equal(t, "bob", res.Issue.Assignee())

	res, err = e.Assign(ctx, alice, engine.Params{IssueID: &id, AssignedTo: ptr(types.UnassignSentinel)})
	require.NoError(t, err)
	assert.Nil(t, res.Issue.AssignedTo)

	recs := historyFor(t, store, id, types.FieldAssignedTo)
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].OldValue)
	assert.Equal(t, "bob", types.StringValue(recs[0].NewValue))
	assert.Equal(t, "bob", types.StringValue(recs[1].OldValue))
	assert.Nil(t, recs[1].NewValue)
	assert.Empty(t, historyFor(t, store, id, types.FieldStatus))
}

func TestAssignUnassignWhenAlreadyUnassigned(t *testing.T) {
	e, _ := newTestEngine(t)
	id := mustNew(t, e, engine.Params{})

	res, err := e.Assign(context.Background(), alice, engine.Params{IssueID: &id, AssignedTo: ptr("-")})
	require.NoError(t, err)
	assert.Nil(t, res.Issue.AssignedTo)
}

func TestAssignLegacyFieldLabel(t *testing.T) {
	e, store := newTestEngine(t, engine.WithHistoryPolicy(engine.HistoryPolicy{AssignField: types.FieldStatus}))
	id := mustNew(t, e, engine.Params{})

	_, err := e.Assign(context.Background(), alice, engine.Params{IssueID: &id, AssignedTo: ptr("carol")})
	require.NoError(t, err)

	recs := historyFor(t, store, id, types.FieldStatus)
	require.Len(t, recs, 1)
	assert.Equal(t, "carol", types.StringValue(recs[0].NewValue))
}

func TestAssignRequiresParameters(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{})

	// The checked-out issue is not used for assign.
	_, err := e.Checkout(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)

	_, err = e.Assign(ctx, alice, engine.Params{AssignedTo: ptr("bob")})
	assert.ErrorIs(t, err, engine.ErrMissingParameter)
	_, err = e.Assign(ctx, alice, engine.Params{IssueID: &id})
	assert.ErrorIs(t, err, engine.ErrMissingParameter)
}

func TestComment(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Title: ptr("Fix bug")})
	before, err := store.GetIssue(ctx, id)
	require.NoError(t, err)

	res, err := e.Comment(ctx, alice, engine.Params{IssueID: &id, Comment: ptr("looks good")})
	require.NoError(t, err)
	require.NotNil(t, res.Comment)
	assert.NotZero(t, res.Comment.ID)

	comments, err := store.GetComments(ctx, id)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "looks good", comments[0].Text)
	assert.Equal(t, "alice", comments[0].CreatedBy)

	after, err := store.GetIssue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after, "comment must not change the issue")
	assert.Empty(t, history(t, store, id))
}

func TestCommentRequiresText(t *testing.T) {
	e, _ := newTestEngine(t)

	// Missing text is reported before the issue id is resolved.
	_, err := e.Comment(context.Background(), alice, engine.Params{})
	assert.ErrorIs(t, err, engine.ErrMissingParameter)
}

func TestCheckoutUpsert(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	id1 := mustNew(t, e, engine.Params{})
	id2 := mustNew(t, e, engine.Params{})

	_, err := e.Checkout(ctx, alice, engine.Params{IssueID: &id1})
	require.NoError(t, err)
	_, err = e.Checkout(ctx, alice, engine.Params{IssueID: &id2})
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, store, "checked_out"))
	got, ok, err := store.GetCheckout(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id2, got)

	current, err := e.Current(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, id2, current.ID)
}

func TestCheckoutRequiresID(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Checkout(ctx, alice, engine.Params{})
	assert.ErrorIs(t, err, engine.ErrMissingIssueID)

	_, err = e.Current(ctx, alice)
	assert.ErrorIs(t, err, engine.ErrMissingIssueID)
}

func TestModifyTitleAndDescription(t *testing.T) {
	ed := &scriptedEditor{fn: func(string) string {
		return "[title]\nNew title\n[description]\nNew description\n[tags]\nbug\n"
	}}
	e, store := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Title: ptr("Old title"), Tags: []string{"bug"}})

	res, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)

	assert.Equal(t, "[title]\nOld title\n[description]\n\n[tags]\nbug\n", ed.shown)
	assert.Equal(t, map[types.Field]string{
		types.FieldTitle:       "New title",
		types.FieldDescription: "New description",
	}, res.Updates)
	assert.Equal(t, "New title", res.Issue.Title)
	assert.Equal(t, "New description", res.Issue.DescriptionText())

	titles := historyFor(t, store, id, types.FieldTitle)
	require.Len(t, titles, 1)
	assert.Equal(t, "Old title", types.StringValue(titles[0].OldValue))
	assert.Equal(t, "New title", types.StringValue(titles[0].NewValue))

	descs := historyFor(t, store, id, types.FieldDescription)
	require.Len(t, descs, 1)
	assert.Nil(t, descs[0].OldValue)
	assert.Equal(t, "New description", types.StringValue(descs[0].NewValue))
}

func TestModifyTagsOnly(t *testing.T) {
	ed := replaceEditor("[tags]\na,b\n", "[tags]\nb, c\n")
	e, store := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Title: ptr("T"), Tags: []string{"a", "b"}})

	res, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)

	assert.Empty(t, res.Updates, "unchanged title/description yields an empty update")
	assert.Empty(t, history(t, store, id), "tag changes are not historied by default")
	assert.Equal(t, []string{"b", "c"}, res.Issue.Tags)
}

func TestModifyNoChanges(t *testing.T) {
	ed := &scriptedEditor{fn: func(s string) string { return s }}
	e, store := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Title: ptr("T"), Description: ptr("D"), Tags: []string{"x"}})

	res, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)
	assert.Empty(t, res.Updates)
	assert.Empty(t, history(t, store, id))
	assert.Equal(t, []string{"x"}, res.Issue.Tags)
}

func TestModifyNoChangesAfterTrim(t *testing.T) {
	ed := &scriptedEditor{fn: func(s string) string { return s }}
	e, store := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Title: ptr("Fix bug "), Description: ptr("line one\n")})

	res, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)
	assert.Empty(t, res.Updates)
	assert.Empty(t, history(t, store, id))
}

func TestModifyUntrimmedStoredValues(t *testing.T) {
	ed := &scriptedEditor{fn: func(s string) string { return s }}
	e, store := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()

	var id int64
	require.NoError(t, store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		var err error
		id, err = tx.CreateIssue(ctx, &types.Issue{
			Title:       "Fix bug ",
			Description: ptr("line one\n"),
			Status:      types.StatusOpen,
			CreatedBy:   "alice",
			CreatedTime: t0,
		})
		return err
	}))

	res, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)
	assert.Empty(t, res.Updates)
	assert.Empty(t, history(t, store, id))
}

func TestModifyKeepsMarkerLinesInDescription(t *testing.T) {
	ed := &scriptedEditor{fn: func(s string) string { return s }}
	e, store := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()
	desc := "see section\n[tags]\nbelow\n[title]"
	id := mustNew(t, e, engine.Params{Title: ptr("T"), Description: ptr(desc), Tags: []string{"x"}})

	res, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)
	assert.Empty(t, res.Updates)
	assert.Empty(t, history(t, store, id))
	assert.Equal(t, desc, res.Issue.DescriptionText())
	assert.Equal(t, []string{"x"}, res.Issue.Tags)
}

func TestModifyClearsDescription(t *testing.T) {
	ed := replaceEditor("[description]\nD\n", "[description]\n\n")
	e, store := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Title: ptr("T"), Description: ptr("D")})

	res, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)
	assert.Nil(t, res.Issue.Description)

	descs := historyFor(t, store, id, types.FieldDescription)
	require.Len(t, descs, 1)
	assert.Equal(t, "D", types.StringValue(descs[0].OldValue))
	assert.Nil(t, descs[0].NewValue)
}

func TestModifyTrackTags(t *testing.T) {
	ed := replaceEditor("[tags]\na\n", "[tags]\nb\n")
	e, store := newTestEngine(t,
		engine.WithEditor(ed),
		engine.WithHistoryPolicy(engine.HistoryPolicy{TrackTags: true}),
	)
	id := mustNew(t, e, engine.Params{Tags: []string{"a"}})

	_, err := e.Modify(context.Background(), alice, engine.Params{IssueID: &id})
	require.NoError(t, err)

	recs := historyFor(t, store, id, types.FieldTags)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", types.StringValue(recs[0].OldValue))
	assert.Equal(t, "b", types.StringValue(recs[0].NewValue))
}

func TestModifyUnreadable(t *testing.T) {
	ed := &scriptedEditor{fn: func(string) string { return "I deleted everything" }}
	e, store := newTestEngine(t, engine.WithEditor(ed))
	id := mustNew(t, e, engine.Params{Title: ptr("T"), Tags: []string{"keep"}})

	_, err := e.Modify(context.Background(), alice, engine.Params{IssueID: &id})
	assert.ErrorIs(t, err, engine.ErrUnreadableEdit)

	got, err := store.GetIssue(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, []string{"keep"}, got.Tags)
}

func TestModifyEditorErrors(t *testing.T) {
	ctx := context.Background()

	e, _ := newTestEngine(t)
	id := mustNew(t, e, engine.Params{})
	_, err := e.Modify(ctx, alice, engine.Params{IssueID: &id})
	assert.ErrorIs(t, err, engine.ErrEditorFailed, "no editor configured")

	failing := engine.EditorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("exit status 1")
	})
	e, _ = newTestEngine(t, engine.WithEditor(failing))
	id = mustNew(t, e, engine.Params{})
	_, err = e.Modify(ctx, alice, engine.Params{IssueID: &id})
	assert.ErrorIs(t, err, engine.ErrEditorFailed)
	assert.NotErrorIs(t, err, engine.ErrStorage)
}

func TestModifyResolvesCheckout(t *testing.T) {
	ed := replaceEditor("[title]\nT\n", "[title]\nU\n")
	e, _ := newTestEngine(t, engine.WithEditor(ed))
	ctx := context.Background()

	_, err := e.Modify(ctx, alice, engine.Params{})
	assert.ErrorIs(t, err, engine.ErrMissingIssueID)

	id := mustNew(t, e, engine.Params{Title: ptr("T")})
	_, err = e.Checkout(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)

	res, err := e.Modify(ctx, alice, engine.Params{})
	require.NoError(t, err)
	assert.Equal(t, id, res.IssueID)
	assert.Equal(t, "U", res.Issue.Title)
}

func TestReopenFromActual(t *testing.T) {
	e, store := newTestEngine(t, engine.WithHistoryPolicy(engine.HistoryPolicy{ReopenFromActual: true}))
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Status: ptr("pending")})

	_, err := e.Reopen(ctx, alice, engine.Params{IssueID: &id})
	require.NoError(t, err)

	recs := historyFor(t, store, id, types.FieldStatus)
	require.Len(t, recs, 1)
	assert.Equal(t, "pending", types.StringValue(recs[0].OldValue))
}

func TestReopenDefaultRecordsClosed(t *testing.T) {
	e, store := newTestEngine(t)
	id := mustNew(t, e, engine.Params{Status: ptr("pending")})

	_, err := e.Reopen(context.Background(), alice, engine.Params{IssueID: &id})
	require.NoError(t, err)

	recs := historyFor(t, store, id, types.FieldStatus)
	require.Len(t, recs, 1)
	assert.Equal(t, "closed", types.StringValue(recs[0].OldValue))
}

func TestDetailsAndList(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	id := mustNew(t, e, engine.Params{Title: ptr("A"), Tags: []string{"t"}})
	other := mustNew(t, e, engine.Params{Title: ptr("B")})

	_, err := e.Close(ctx, alice, engine.Params{IssueID: &other, Comment: ptr("dup")})
	require.NoError(t, err)

	d, err := e.Details(ctx, alice, &other)
	require.NoError(t, err)
	assert.Equal(t, "B", d.Issue.Title)
	assert.Len(t, d.Comments, 1)
	assert.Len(t, d.History, 1)

	h, err := e.History(ctx, alice, &other)
	require.NoError(t, err)
	assert.Len(t, h, 1)

	missing := int64(12345)
	_, err = e.Details(ctx, alice, &missing)
	assert.ErrorIs(t, err, engine.ErrInvalidIssue)

	_, err = e.Details(ctx, alice, nil)
	assert.ErrorIs(t, err, engine.ErrMissingIssueID)

	open, err := e.List(ctx, types.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, id, open[0].ID)

	all, err := e.List(ctx, types.IssueFilter{IncludeClosed: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
