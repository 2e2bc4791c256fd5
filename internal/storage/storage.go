// Package storage provides shared types for issue storage.
//
// The concrete implementation lives in the sqlstore sub-package, which
// speaks both SQLite (embedded, the default) and MySQL/Dolt sql-server.
// This package holds the interfaces that the engine and cmd/pm depend on,
// so that alternative implementations (wrappers, fakes) can be substituted.
package storage

import (
	"context"
	"errors"

	"github.com/nootmuskaat/pm/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrInvalidField is returned when a field outside the fixed column
// enumeration is passed to a read or update.
var ErrInvalidField = errors.New("invalid field")

// Store is the interface satisfied by *sqlstore.Store.
type Store interface {
	// Transactions
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	// Read-only queries, each in its own implicit transaction
	GetIssue(ctx context.Context, id int64) (*types.Issue, error)
	ListIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error)
	GetTags(ctx context.Context, issueID int64) ([]string, error)
	GetComments(ctx context.Context, issueID int64) ([]*types.Comment, error)
	GetHistory(ctx context.Context, issueID int64) ([]*types.HistoryRecord, error)
	GetCheckout(ctx context.Context, username string) (int64, bool, error)

	// Lifecycle
	Path() string
	Close() error
}

// Transaction provides atomic multi-operation support within a single database transaction.
//
// Every engine action runs all of its reads and writes through one
// Transaction. Nothing written through a Transaction is visible to other
// connections until the callback passed to RunInTransaction returns nil.
//
// # Transaction Semantics
//
//   - All operations within the transaction share the same database connection
//   - If any operation returns an error, the transaction is rolled back
//   - If the callback function panics, the transaction is rolled back
//   - On successful return from the callback, the transaction is committed
//
// # Example Usage
//
//	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
//	    old, err := tx.GetIssueField(ctx, id, types.FieldStatus)
//	    if err != nil {
//	        return err // Triggers rollback
//	    }
//	    if err := tx.AppendHistory(ctx, &types.HistoryRecord{...}); err != nil {
//	        return err // Triggers rollback
//	    }
//	    return tx.UpdateIssue(ctx, id, map[types.Field]any{types.FieldStatus: "pending"})
//	})
type Transaction interface {
	// Issue operations
	CreateIssue(ctx context.Context, issue *types.Issue) (int64, error)
	GetIssue(ctx context.Context, id int64) (*types.Issue, error)
	GetIssueField(ctx context.Context, id int64, field types.Field) (*string, error)
	UpdateIssue(ctx context.Context, id int64, updates map[types.Field]any) error
	IssueExists(ctx context.Context, id int64) (bool, error)

	// History (append-only ledger)
	AppendHistory(ctx context.Context, rec *types.HistoryRecord) error

	// Tag operations
	GetTags(ctx context.Context, issueID int64) ([]string, error)
	AddTag(ctx context.Context, issueID int64, tag string) error
	RemoveTag(ctx context.Context, issueID int64, tag string) error

	// Comment operations
	AddComment(ctx context.Context, comment *types.Comment) (int64, error)

	// Checkout registry
	GetCheckout(ctx context.Context, username string) (int64, bool, error)
	SetCheckout(ctx context.Context, username string, issueID int64) error
}
