package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// testTime is a fixed timestamp with whole seconds, matching the stored
// precision.
var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestStore creates a file-backed Store in a temp directory.
// File-based databases behave like production with a real connection pool.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewSQLite(context.Background(), t.TempDir()+"/test.db", 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			t.Fatalf("Failed to close test database: %v", cerr)
		}
	})
	return store
}

// createTestIssue inserts an open issue with the given title and tags.
func createTestIssue(t *testing.T, store *Store, title string, tags ...string) int64 {
	t.Helper()

	var id int64
	err := store.RunInTransaction(context.Background(), func(tx storage.Transaction) error {
		var err error
		id, err = tx.CreateIssue(context.Background(), &types.Issue{
			Title:       title,
			Status:      types.StatusOpen,
			CreatedBy:   "alice",
			CreatedTime: testTime,
			Tags:        tags,
		})
		return err
	})
	if err != nil {
		t.Fatalf("CreateIssue failed: %v", err)
	}
	return id
}
