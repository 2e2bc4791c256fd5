package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

const storageScopeName = "github.com/nootmuskaat/pm/storage"

// InstrumentedStore wraps storage.Store with OTel tracing and metrics.
// Every method gets a span and is counted in pm.storage.* metrics.
// Use WrapStore to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStore struct {
	inner  storage.Store
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

var _ storage.Store = (*InstrumentedStore)(nil)

// WrapStore returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStore(s storage.Store) storage.Store {
	if !Enabled() {
		return s
	}
	return newInstrumentedStore(s)
}

func newInstrumentedStore(s storage.Store) *InstrumentedStore {
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("pm.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("pm.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("pm.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStore{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedStore) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	ctx, span, t := s.op(ctx, "RunInTransaction")
	err := s.inner.RunInTransaction(ctx, fn)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStore) GetIssue(ctx context.Context, id int64) (*types.Issue, error) {
	attrs := []attribute.KeyValue{attribute.Int64("pm.issue.id", id)}
	ctx, span, t := s.op(ctx, "GetIssue", attrs...)
	v, err := s.inner.GetIssue(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) ListIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error) {
	ctx, span, t := s.op(ctx, "ListIssues")
	v, err := s.inner.ListIssues(ctx, filter)
	span.SetAttributes(attribute.Int("pm.issue.count", len(v)))
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStore) GetTags(ctx context.Context, issueID int64) ([]string, error) {
	attrs := []attribute.KeyValue{attribute.Int64("pm.issue.id", issueID)}
	ctx, span, t := s.op(ctx, "GetTags", attrs...)
	v, err := s.inner.GetTags(ctx, issueID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) GetComments(ctx context.Context, issueID int64) ([]*types.Comment, error) {
	attrs := []attribute.KeyValue{attribute.Int64("pm.issue.id", issueID)}
	ctx, span, t := s.op(ctx, "GetComments", attrs...)
	v, err := s.inner.GetComments(ctx, issueID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) GetHistory(ctx context.Context, issueID int64) ([]*types.HistoryRecord, error) {
	attrs := []attribute.KeyValue{attribute.Int64("pm.issue.id", issueID)}
	ctx, span, t := s.op(ctx, "GetHistory", attrs...)
	v, err := s.inner.GetHistory(ctx, issueID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) GetCheckout(ctx context.Context, username string) (int64, bool, error) {
	attrs := []attribute.KeyValue{attribute.String("pm.actor", username)}
	ctx, span, t := s.op(ctx, "GetCheckout", attrs...)
	id, ok, err := s.inner.GetCheckout(ctx, username)
	s.done(ctx, span, t, err, attrs...)
	return id, ok, err
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *InstrumentedStore) Path() string {
	return s.inner.Path()
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
