package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/pkg/gatesdk"
	"github.com/aussiebroadwan/sessiongate/pkg/httpx"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

// DefaultLogoutTokenHeader carries the shared secret on logout
// notifications when no custom header is configured.
const DefaultLogoutTokenHeader = "x-logout-token"

const maxNotificationBody = 64 * 1024

// LoggedOutHandler receives service-to-service logout notifications
// from providers.
type LoggedOutHandler struct {
	NotifyService *service.NotifyService

	// TokenHeader overrides the header carrying the shared secret.
	TokenHeader string
}

func (h *LoggedOutHandler) tokenHeader() string {
	if h.TokenHeader == "" {
		return DefaultLogoutTokenHeader
	}
	return h.TokenHeader
}

// ServeHTTP godoc
//
//	@Summary		Logout notification endpoint
//	@Description	Lets a provider tell the gateway a user logged out elsewhere, purging that user's accounts from every session
//	@Description	Authenticated by a shared secret header verified in constant time
//	@Tags			Logout
//	@Accept			json
//	@Produce		json
//	@Param			service			path	string	true	"Provider name"
//	@Param			x-logout-token	header	string	true	"Shared secret"
//	@Param			body			body	object	true	"Notification payload with user_id"
//	@Success		200	"Notification processed"
//	@Failure		400	{object}	gatesdk.GatewayError	"malformed payload"
//	@Failure		401	{object}	gatesdk.GatewayError	"bad shared secret"
//	@Failure		404	{object}	gatesdk.GatewayError	"unknown service"
//	@Failure		500	{object}	gatesdk.GatewayError	"purge failure"
//	@Router			/loggedout/{service} [post].
func (h *LoggedOutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBody))
	if err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err = h.NotifyService.LoggedOut(ctx, r.PathValue("service"), r.Header.Get(h.tokenHeader()), body)
	switch {
	case err == nil:
		httpx.NoCache(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	case errors.Is(err, service.ErrProviderNotFound):
		gatesdk.ErrUnknownService.WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		gatesdk.ErrUnauthorized.WriteError(w)
	case errors.Is(err, service.ErrInvalidNotification):
		gatesdk.ErrInvalidRequest.WriteError(w)
	default:
		slogx.FromContext(ctx).Error("logout notification failed", "error", err)
		gatesdk.ErrServerError.WriteError(w)
	}
}
