// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the operator or participant driving a call.
type ActorKey struct{}

// DefaultActor is reported when no actor was attached to the context.
const DefaultActor = "anonymous"

// WithActorID returns a context with the actor ID embedded.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorKey{}, actorID)
}

// ActorFromContext returns the actor ID from context, or DefaultActor if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultActor
}
