package shared

import "context"

type actorContextKey struct{}

// Actor identifies the verified caller forwarded by the upstream gateway.
type Actor struct {
	ID        int64
	CompanyID int64
}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
