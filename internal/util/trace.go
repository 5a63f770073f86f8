package util

import (
	"context"

	"github.com/google/uuid"
)

type traceIDKey struct{}

type userKey struct{}

// WithTraceID returns a context tagged with a fresh trace id. Log lines
// written through LoggerFor share that id, which ties the requests of one
// dashboard refresh together.
func WithTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, traceIDKey{}, uuid.NewString())
}

// TraceIDFrom returns the trace id stored in ctx, or "".
func TraceIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// WithUser tags ctx with the logged-in user name.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}
