package http

import (
	"net/http"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
	"github.com/aussiebroadwan/sessiongate/pkg/httpx"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

// RefreshSession loads the request's session, refreshes any expiring
// tokens, and hands the session to the wrapped handler via context.
// Refresh failures are logged inside the service and never block the
// request.
func RefreshSession(sessions *session.Manager, refresh *service.RefreshService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := sessions.Load(ctx, r)
			if err != nil {
				slogx.FromContext(ctx).Error("session load failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if refresh.RefreshSessionTokens(ctx, sess) {
				if err := sessions.Save(ctx, w, sess); err != nil {
					slogx.FromContext(ctx).Error("session save after refresh failed", "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(withSession(ctx, sess)))
		})
	}
}
