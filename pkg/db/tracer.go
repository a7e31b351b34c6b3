package db

import (
	"context"
	"strings"

	// Packages
	attribute "go.opentelemetry.io/otel/attribute"
	codes "go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// tracer observes every statement a conn sends to the database, optionally
// emitting an OpenTelemetry span and/or invoking a plain callback.
//
// database/sql has no query-tracer hook comparable to pgx.QueryTracer, so
// tracing is done by conn itself, wrapping each Bind.Exec/Query/QueryRow
// call rather than a driver-level callback.
type tracer struct {
	fn   TraceFn
	otel trace.Tracer
}

// TraceFn is called after a query completes, with the SQL text as sent to
// the driver and any error.
type TraceFn func(ctx context.Context, query string, err error)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewTracer returns a tracer that only invokes fn; no spans are created.
func NewTracer(fn TraceFn) *tracer {
	return &tracer{fn: fn}
}

// NewOTELTracer returns a tracer that starts an OpenTelemetry span for
// every query, using t as the span source.
func NewOTELTracer(t trace.Tracer) *tracer {
	return &tracer{otel: t}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// trace records one statement. Called on a nil receiver when no tracer is
// configured, in which case it is a no-op.
//
// For QueryRow-backed calls the error passed in reflects only whether the
// call could be issued, not the eventual Scan outcome: *sql.Row defers
// execution until Scan is called, unlike pgx.Row, which executes eagerly.
func (t *tracer) trace(ctx context.Context, query string, err error) {
	if t == nil {
		return
	}

	query = strings.TrimSpace(query)

	if t.otel != nil {
		_, span := t.otel.Start(ctx, "db.query",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemSqlite,
				attribute.String("db.statement", query),
			),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}

	if t.fn != nil {
		t.fn(ctx, query, err)
	}
}
