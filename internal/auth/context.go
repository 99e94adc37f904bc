package auth

import "context"

type contextKey struct{}

// Actor is the authenticated account behind a request.
type Actor struct {
	AccountID int64
	Role      string
	Age       int
	SessionID int64
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

func AccountID(ctx context.Context) int64 {
	a, ok := ActorFrom(ctx)
	if !ok {
		return 0
	}
	return a.AccountID
}

func IsParent(ctx context.Context) bool {
	a, ok := ActorFrom(ctx)
	if !ok {
		return false
	}
	return a.Role == "parent"
}
