package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/pkg/gatesdk"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

// LogoutHandler serves logout initiation and the per-provider logout
// callback.
type LogoutHandler struct {
	LogoutService *service.LogoutService
}

// HandleInitiate godoc
//
//	@Summary		Start a logout flow
//	@Description	Builds the provider's logout redirect with an encrypted payload naming the user, token, and callback
//	@Description	Sessions without an account for the provider are redirected home
//	@Tags			Logout
//	@Param			service	path	string	true	"Provider name"
//	@Param			fromUrl	query	string	false	"Destination after logout completes (default /)"
//	@Success		302	"Redirect to the provider or home"
//	@Failure		404	{object}	gatesdk.GatewayError	"unknown service"
//	@Router			/logout/{service} [get].
func (h *LogoutHandler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.LogoutService.Initiate(ctx, w, r, r.PathValue("service"))
	if err != nil {
		if errors.Is(err, service.ErrProviderNotFound) {
			gatesdk.ErrUnknownService.WriteError(w)
			return
		}
		slogx.FromContext(ctx).Warn("logout initiation failed", "error", err)
		if redirect == "" {
			gatesdk.ErrServerError.WriteError(w)
			return
		}
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Complete a logout flow
//	@Description	Removes the provider's account from the session, regenerates the session identity, and redirects to the stored destination
//	@Tags			Logout
//	@Param			service	path	string	true	"Provider name"
//	@Success		302	"Redirect to the stored destination"
//	@Failure		404	{object}	gatesdk.GatewayError	"unknown service"
//	@Router			/logout/callback/{service} [get].
func (h *LogoutHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.LogoutService.Callback(ctx, w, r, r.PathValue("service"))
	if err != nil {
		if errors.Is(err, service.ErrProviderNotFound) {
			gatesdk.ErrUnknownService.WriteError(w)
			return
		}
		slogx.FromContext(ctx).Warn("logout callback failed", "error", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}
