package sqlstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

func TestCreateAndGetIssue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var created *types.Issue
	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		created = &types.Issue{
			Title:       "Fix login",
			Description: types.StringPtr("users cannot log in"),
			Status:      types.StatusInProgress,
			AssignedTo:  types.StringPtr("bob"),
			CreatedBy:   "alice",
			CreatedTime: testTime,
			Tags:        []string{"ui", "bug", "ui"},
		}
		_, err := tx.CreateIssue(ctx, created)
		return err
	})
	if err != nil {
		t.Fatalf("CreateIssue failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected CreateIssue to assign an ID")
	}

	got, err := store.GetIssue(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if got.Title != "Fix login" {
		t.Errorf("Title = %q, want %q", got.Title, "Fix login")
	}
	if got.DescriptionText() != "users cannot log in" {
		t.Errorf("Description = %q", got.DescriptionText())
	}
	if got.Status != types.StatusInProgress {
		t.Errorf("Status = %q, want in_progress", got.Status)
	}
	if got.Closed || got.ClosedTime != nil {
		t.Errorf("expected open issue, got closed=%v closed_time=%v", got.Closed, got.ClosedTime)
	}
	if got.Assignee() != "bob" {
		t.Errorf("AssignedTo = %q, want bob", got.Assignee())
	}
	if got.CreatedBy != "alice" {
		t.Errorf("CreatedBy = %q, want alice", got.CreatedBy)
	}
	if !got.CreatedTime.Equal(testTime) {
		t.Errorf("CreatedTime = %v, want %v", got.CreatedTime, testTime)
	}
	if want := []string{"bug", "ui"}; !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Tags = %v, want %v", got.Tags, want)
	}
}

func TestCreateIssueValidates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		_, err := tx.CreateIssue(ctx, &types.Issue{
			Title:       "inconsistent",
			Status:      types.StatusClosed,
			CreatedBy:   "alice",
			CreatedTime: testTime,
		})
		return err
	})
	if err == nil {
		t.Fatal("expected validation error for closed status without closed flag")
	}
}

func TestGetIssueNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetIssue(context.Background(), 42)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetIssueField(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := createTestIssue(t, store, "field test")

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		status, err := tx.GetIssueField(ctx, id, types.FieldStatus)
		if err != nil {
			return err
		}
		if types.StringValue(status) != "open" {
			t.Errorf("status = %v, want open", types.StringValue(status))
		}

		assignee, err := tx.GetIssueField(ctx, id, types.FieldAssignedTo)
		if err != nil {
			return err
		}
		if assignee != nil {
			t.Errorf("expected nil assignee, got %q", *assignee)
		}

		if _, err := tx.GetIssueField(ctx, id, types.FieldClosedTime); !errors.Is(err, storage.ErrInvalidField) {
			t.Errorf("expected ErrInvalidField for closed_time, got %v", err)
		}
		if _, err := tx.GetIssueField(ctx, id, types.Field("title; DROP TABLE issues")); !errors.Is(err, storage.ErrInvalidField) {
			t.Errorf("expected ErrInvalidField for injected field, got %v", err)
		}
		if _, err := tx.GetIssueField(ctx, id+100, types.FieldTitle); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing issue, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTransaction failed: %v", err)
	}
}

func TestUpdateIssue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := createTestIssue(t, store, "before")
	closedAt := testTime.Add(time.Hour)

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.UpdateIssue(ctx, id, map[types.Field]any{
			types.FieldTitle:       "after",
			types.FieldDescription: types.StringPtr("now described"),
			types.FieldStatus:      types.StatusClosed,
			types.FieldClosed:      true,
			types.FieldClosedTime:  closedAt,
			types.FieldAssignedTo:  types.StringPtr("carol"),
		})
	})
	if err != nil {
		t.Fatalf("UpdateIssue failed: %v", err)
	}

	got, err := store.GetIssue(ctx, id)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if got.Title != "after" || got.DescriptionText() != "now described" {
		t.Errorf("unexpected title/description: %q / %q", got.Title, got.DescriptionText())
	}
	if got.Status != types.StatusClosed || !got.Closed {
		t.Errorf("expected closed issue, got status=%s closed=%v", got.Status, got.Closed)
	}
	if got.ClosedTime == nil || !got.ClosedTime.Equal(closedAt) {
		t.Errorf("ClosedTime = %v, want %v", got.ClosedTime, closedAt)
	}
	if got.Assignee() != "carol" {
		t.Errorf("AssignedTo = %q, want carol", got.Assignee())
	}

	// Clearing nullable columns
	err = store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.UpdateIssue(ctx, id, map[types.Field]any{
			types.FieldStatus:     types.StatusOpen,
			types.FieldClosed:     false,
			types.FieldClosedTime: nil,
			types.FieldAssignedTo: (*string)(nil),
		})
	})
	if err != nil {
		t.Fatalf("UpdateIssue (clear) failed: %v", err)
	}
	got, err = store.GetIssue(ctx, id)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if got.Closed || got.ClosedTime != nil || got.AssignedTo != nil {
		t.Errorf("expected cleared fields, got closed=%v closed_time=%v assigned_to=%v",
			got.Closed, got.ClosedTime, got.AssignedTo)
	}
}

func TestUpdateIssueRejectsUnknownField(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := createTestIssue(t, store, "guarded")

	for _, field := range []types.Field{types.FieldCreatedBy, types.FieldTags, "issue_id", "title = 'x', status"} {
		err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			return tx.UpdateIssue(ctx, id, map[types.Field]any{field: "x"})
		})
		if !errors.Is(err, storage.ErrInvalidField) {
			t.Errorf("field %q: expected ErrInvalidField, got %v", field, err)
		}
	}

	got, err := store.GetIssue(ctx, id)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if got.Title != "guarded" {
		t.Errorf("title changed to %q", got.Title)
	}
}

func TestUpdateIssueNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.UpdateIssue(ctx, 999, map[types.Field]any{types.FieldTitle: "ghost"})
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestUpdateIssueUnchangedValue verifies that writing the current value
// is not reported as a missing row.
func TestUpdateIssueUnchangedValue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := createTestIssue(t, store, "same")

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.UpdateIssue(ctx, id, map[types.Field]any{types.FieldTitle: "same"})
	})
	if err != nil {
		t.Errorf("expected no error for unchanged update, got %v", err)
	}
}

func TestListIssues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := createTestIssue(t, store, "first", "backend")
	second := createTestIssue(t, store, "second", "backend", "urgent")
	third := createTestIssue(t, store, "third")

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := tx.UpdateIssue(ctx, third, map[types.Field]any{
			types.FieldStatus:     types.StatusClosed,
			types.FieldClosed:     true,
			types.FieldClosedTime: testTime,
		}); err != nil {
			return err
		}
		return tx.UpdateIssue(ctx, first, map[types.Field]any{types.FieldAssignedTo: "bob"})
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	ids := func(issues []*types.Issue) []int64 {
		out := []int64{}
		for _, i := range issues {
			out = append(out, i.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter types.IssueFilter
		want   []int64
	}{
		{"default excludes closed", types.IssueFilter{}, []int64{second, first}},
		{"include closed", types.IssueFilter{IncludeClosed: true}, []int64{third, second, first}},
		{"status closed", types.IssueFilter{Status: statusPtr(types.StatusClosed)}, []int64{third}},
		{"assignee", types.IssueFilter{AssignedTo: types.StringPtr("bob")}, []int64{first}},
		{"one tag", types.IssueFilter{Tags: []string{"backend"}}, []int64{second, first}},
		{"all tags", types.IssueFilter{Tags: []string{"backend", "urgent"}}, []int64{second}},
		{"limit", types.IssueFilter{Limit: 1}, []int64{second}},
		{"created after", types.IssueFilter{CreatedAfter: timePtr(testTime.Add(time.Minute))}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListIssues(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListIssues failed: %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func statusPtr(s types.Status) *types.Status { return &s }

func timePtr(t time.Time) *time.Time { return &t }
