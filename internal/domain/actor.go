package domain

import "context"

// Actor identifies the user a request runs as. The zero value is the
// anonymous actor: permission checks fall back to public visibility and
// actor-dependent search filters match nothing instead of erroring.
type Actor struct {
	ID int64
}

// Anonymous reports whether no authenticated user is attached.
func (a Actor) Anonymous() bool { return a.ID == 0 }

type actorKey struct{}

// ContextWithActor stores the request actor in the context.
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext extracts the request actor from the context.
// Returns the anonymous actor if none is stored.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{}
}
