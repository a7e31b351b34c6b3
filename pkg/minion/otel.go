package minion

import (
	"context"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	attribute "go.opentelemetry.io/otel/attribute"
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// startSpan starts a span named "minion.manager.<op>" under the manager's
// configured tracer, returning the derived context and a function to end it
// with the operation's error. A nil tracer (the default) makes this a
// no-op, same as manager.tracer being unset entirely.
func (manager *Manager) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	return otel.StartSpan(manager.tracer, ctx, spanName(op), attrs...)
}

func spanName(op string) string {
	return "minion.manager." + op
}
