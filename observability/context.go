package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RunContext holds observability state for one pipeline run.
type RunContext struct {
	RunID     string
	Pipeline  string
	StartTime time.Time
	Metrics   *Metrics
}

// NewRunContext creates a run context. If metrics is nil, metric recording
// is skipped.
func NewRunContext(runID, pipeline string, metrics *Metrics) *RunContext {
	return &RunContext{
		RunID:     runID,
		Pipeline:  pipeline,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// StartRun starts the root span of the run and stores the RunContext in
// the returned context.
func (rc *RunContext) StartRun(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanRun)
	span.SetAttributes(
		attribute.String(AttrRunID, rc.RunID),
		attribute.String(AttrPipeline, rc.Pipeline),
	)
	return WithRunContext(ctx, rc), span
}

// EndRun ends the root span and records the run metrics.
func (rc *RunContext) EndRun(ctx context.Context, span trace.Span, err error) {
	duration := time.Since(rc.StartTime)
	status := StatusOK
	if err != nil {
		status = StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	rc.Metrics.RecordRun(ctx, status, duration)
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}

// StartPhase starts a span for the blocking materialization phase of an
// operator.
func StartPhase(ctx context.Context, operator, phase string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanPhase)
	span.SetAttributes(
		attribute.String(AttrOperator, operator),
		attribute.String(AttrPhase, phase),
	)
	if rc := RunContextFromContext(ctx); rc != nil {
		span.SetAttributes(attribute.String(AttrRunID, rc.RunID))
	}
	return ctx, span
}

// EndPhase ends a phase span with the number of rows it materialized.
func EndPhase(span trace.Span, rows int, err error) {
	span.SetAttributes(attribute.Int(AttrRows, rows))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
