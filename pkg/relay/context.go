package relay

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/docrelay/pkg/logger"
)

type invocationIDKey struct{}

// WithInvocationID stores the invocation id on ctx. Handle reuses it instead
// of generating a new one.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationIDFromContext returns the id stored by WithInvocationID, or "".
func InvocationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(invocationIDKey{}).(string)
	return id
}

// InvocationIDExtractor is a logger.ContextExtractor adding invocation_id to
// every record logged with an invocation context.
func InvocationIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id := InvocationIDFromContext(ctx)
	if id == "" {
		return slog.Attr{}, false
	}
	return logger.InvocationID(id), true
}
