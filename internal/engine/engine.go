// Package engine implements the issue mutation and audit-ledger operations.
//
// Every operation runs in exactly one storage transaction: it resolves the
// target issue, reads the current state, appends history records for each
// field it changes, writes the change, and commits. Any error rolls the
// whole operation back.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/telemetry"
	"github.com/nootmuskaat/pm/internal/types"
)

const engineScopeName = "github.com/nootmuskaat/pm/engine"

// Invocation identifies who is acting and when. It is fixed for the
// duration of one operation; every record written by the operation carries
// these values.
type Invocation struct {
	User string
	Time time.Time
}

// Editor hands text to an interactive editor and returns the edited text.
type Editor interface {
	Edit(ctx context.Context, text string) (string, error)
}

// EditorFunc adapts a function to the Editor interface.
type EditorFunc func(ctx context.Context, text string) (string, error)

// Edit calls f.
func (f EditorFunc) Edit(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// HistoryPolicy controls how ledger records are labeled.
type HistoryPolicy struct {
	// AssignField is the field name recorded for assignment changes.
	// types.FieldAssignedTo by default; types.FieldStatus reproduces the
	// label written by the earlier pm tool.
	AssignField types.Field

	// ReopenFromActual records the issue's actual status as the old value
	// on reopen instead of the constant "closed".
	ReopenFromActual bool

	// TrackTags records tag changes made by modify under field "tags".
	TrackTags bool
}

// DefaultHistoryPolicy returns the policy used when none is configured.
func DefaultHistoryPolicy() HistoryPolicy {
	return HistoryPolicy{AssignField: types.FieldAssignedTo}
}

// Engine executes actions against a store.
type Engine struct {
	store   storage.Store
	editor  Editor
	policy  HistoryPolicy
	logger  *slog.Logger
	actions metric.Int64Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithEditor sets the editor used by Modify.
func WithEditor(ed Editor) Option {
	return func(e *Engine) { e.editor = ed }
}

// WithHistoryPolicy overrides DefaultHistoryPolicy.
func WithHistoryPolicy(p HistoryPolicy) Option {
	return func(e *Engine) {
		if p.AssignField == "" {
			p.AssignField = types.FieldAssignedTo
		}
		e.policy = p
	}
}

// WithLogger sets the logger for operational messages.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an Engine operating on store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		policy: DefaultHistoryPolicy(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	actions, err := telemetry.Meter(engineScopeName).Int64Counter("pm.engine.actions",
		metric.WithDescription("Engine actions executed, by action and outcome"),
	)
	if err != nil {
		actions = metricnoop.Int64Counter{}
	}
	e.actions = actions
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() storage.Store {
	return e.store
}

// Action is one of the user-facing mutation actions.
type Action string

// Actions
const (
	ActionNew      Action = "new"
	ActionClose    Action = "close"
	ActionReopen   Action = "reopen"
	ActionStatus   Action = "status"
	ActionAssign   Action = "assign"
	ActionComment  Action = "comment"
	ActionCheckout Action = "checkout"
	ActionModify   Action = "modify"
)

// Actions lists every action in help order.
var Actions = []Action{
	ActionNew, ActionStatus, ActionClose, ActionReopen,
	ActionAssign, ActionComment, ActionCheckout, ActionModify,
}

type operation func(e *Engine, ctx context.Context, inv Invocation, p Params) (*Result, error)

// operations is the static dispatch table. Only these actions can run.
var operations = map[Action]operation{
	ActionNew:      (*Engine).New,
	ActionClose:    (*Engine).Close,
	ActionReopen:   (*Engine).Reopen,
	ActionStatus:   (*Engine).Status,
	ActionAssign:   (*Engine).Assign,
	ActionComment:  (*Engine).Comment,
	ActionCheckout: (*Engine).Checkout,
	ActionModify:   (*Engine).Modify,
}

// ParseAction maps an action name to an Action.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := operations[a]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	return a, nil
}

// Params carries the parameters of an action. A nil pointer (or nil slice
// for Tags) means the parameter was not provided.
type Params struct {
	IssueID     *int64
	Title       *string
	Description *string
	Status      *string
	AssignedTo  *string
	Comment     *string
	Tags        []string
}

// Result describes what an action did.
type Result struct {
	Action  Action
	IssueID int64

	// Issue is the issue as committed by the action. Nil for Checkout and
	// Comment.
	Issue *types.Issue

	// Comment is the comment added by the action, if any.
	Comment *types.Comment

	// Updates maps each changed field to its new value (Modify only).
	Updates map[types.Field]string
}

// Dispatch runs action with p.
func (e *Engine) Dispatch(ctx context.Context, action Action, inv Invocation, p Params) (*Result, error) {
	op, ok := operations[action]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
	return op(e, ctx, inv, p)
}

// run executes fn in one transaction and classifies its error.
func (e *Engine) run(ctx context.Context, action Action, inv Invocation, fn func(tx storage.Transaction) error) error {
	e.logger.Debug("running action", "action", action, "user", inv.User)
	err := classify(action, e.store.RunInTransaction(ctx, fn))

	outcome := "ok"
	if err != nil {
		outcome = "error"
		e.logger.Debug("action rolled back", "action", action, "error", err)
	}
	e.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pm.action", string(action)),
		attribute.String("pm.outcome", outcome),
	))
	return err
}

// record appends one ledger entry stamped with the invocation.
func record(ctx context.Context, tx storage.Transaction, inv Invocation, issueID int64, field types.Field, oldValue, newValue *string) error {
	return tx.AppendHistory(ctx, &types.HistoryRecord{
		IssueID:   issueID,
		Username:  inv.User,
		Timestamp: inv.Time,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
}

// optionalComment adds p.Comment to the issue when one was provided.
func optionalComment(ctx context.Context, tx storage.Transaction, inv Invocation, issueID int64, p Params) (*types.Comment, error) {
	if p.Comment == nil || *p.Comment == "" {
		return nil, nil
	}
	c := &types.Comment{
		IssueID:     issueID,
		CreatedBy:   inv.User,
		CreatedTime: inv.Time,
		Text:        *p.Comment,
	}
	if _, err := tx.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
