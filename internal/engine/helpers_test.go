package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nootmuskaat/pm/internal/engine"
	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/storage/sqlstore"
	"github.com/nootmuskaat/pm/internal/types"
)

var (
	t0    = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	alice = engine.Invocation{User: "alice", Time: t0}
)

// at returns alice acting d after t0.
func at(d time.Duration) engine.Invocation {
	return engine.Invocation{User: "alice", Time: t0.Add(d)}
}

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.NewSQLite(context.Background(), t.TempDir()+"/test.db", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *sqlstore.Store) {
	t.Helper()
	store := newTestStore(t)
	return engine.New(store, opts...), store
}

func ptr[T any](v T) *T { return &v }

// mustNew creates an issue and returns its id.
func mustNew(t *testing.T, e *engine.Engine, p engine.Params) int64 {
	t.Helper()
	res, err := e.New(context.Background(), alice, p)
	require.NoError(t, err)
	return res.IssueID
}

func history(t *testing.T, store storage.Store, id int64) []*types.HistoryRecord {
	t.Helper()
	h, err := store.GetHistory(context.Background(), id)
	require.NoError(t, err)
	return h
}

func historyFor(t *testing.T, store storage.Store, id int64, field types.Field) []*types.HistoryRecord {
	t.Helper()
	var out []*types.HistoryRecord
	for _, rec := range history(t, store, id) {
		if rec.Field == field {
			out = append(out, rec)
		}
	}
	return out
}

func countRows(t *testing.T, store *sqlstore.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.UnderlyingDB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// scriptedEditor replaces the edit surface with the output of fn and
// remembers what it was shown.
type scriptedEditor struct {
	shown string
	fn    func(string) string
}

func (s *scriptedEditor) Edit(_ context.Context, text string) (string, error) {
	s.shown = text
	return s.fn(text), nil
}

func replaceEditor(old, repl string) *scriptedEditor {
	return &scriptedEditor{fn: func(s string) string { return strings.Replace(s, old, repl, 1) }}
}

func assertClosedInvariant(t *testing.T, issue *types.Issue) {
	t.Helper()
	require.Equal(t, issue.Status == types.StatusClosed, issue.Closed, "closed flag vs status")
	require.Equal(t, issue.Closed, issue.ClosedTime != nil, "closed flag vs closed_time")
}
