package http

import (
	"context"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
)

type sessionCtxKey struct{}

func withSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

// sessionFrom returns the session placed in the context by the refresh
// middleware, or nil.
func sessionFrom(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*domain.Session)
	return sess
}
