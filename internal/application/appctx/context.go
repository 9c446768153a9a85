package appctx

import "context"

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the acting username in the context. The HTTP layer
// sets it after authentication so services can attribute changes.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Actor returns the acting username, empty for unauthenticated or
// system-initiated operations.
func Actor(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok {
		return v
	}
	return ""
}
