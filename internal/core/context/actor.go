// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor identifies who performed an operation. It is supplied by the caller
// (HTTP middleware or a CLI entry point) and stored verbatim on every
// inventory ledger entry; the engine does not authenticate.
type Actor struct {
	ID   string
	Name string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorID returns actor ID from context or "system" when none is set.
// Background jobs and seeds run without an actor.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.ID != "" {
		return a.ID
	}
	return "system"
}
