package middleware

import (
	"context"

	pkgauth "github.com/licenciapp/licencias-backend/pkg/auth"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the authenticated actor, or a zero Actor when
// the request never passed through Auth.
func ActorFromContext(ctx context.Context) pkgauth.Actor {
	if ctx == nil {
		return pkgauth.Actor{}
	}
	if v, ok := ctx.Value(ctxActor).(pkgauth.Actor); ok {
		return v
	}
	return pkgauth.Actor{}
}

// WithActor injects the actor identity into the context.
func WithActor(ctx context.Context, actor pkgauth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
