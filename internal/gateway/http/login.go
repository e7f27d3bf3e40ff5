package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/pkg/gatesdk"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

// LoginHandler serves login initiation and the shared login callback.
type LoginHandler struct {
	LoginService *service.LoginService
}

// HandleInitiate godoc
//
//	@Summary		Start a login flow
//	@Description	Mints a single-use state, persists it on the session, and redirects the browser to the provider's authorize URL
//	@Tags			Login
//	@Param			service		path	string	true	"Provider name"
//	@Param			fromUrl		query	string	false	"Destination after a successful login (default /)"
//	@Param			auth_type	query	string	false	"Authentication type override"
//	@Param			auth_methods	query	string	false	"Authentication methods override (v2 providers)"
//	@Param			lng			query	string	false	"Interface language passed through to the provider"
//	@Success		302	"Redirect to the provider"
//	@Failure		404	{object}	gatesdk.GatewayError	"unknown service"
//	@Router			/login/{service} [get].
func (h *LoginHandler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.LoginService.Initiate(ctx, w, r, r.PathValue("service"))
	if err != nil {
		if errors.Is(err, service.ErrProviderNotFound) {
			gatesdk.ErrUnknownService.WriteError(w)
			return
		}
		slogx.FromContext(ctx).Warn("login initiation failed", "error", err)
		if redirect == "" {
			gatesdk.ErrServerError.WriteError(w)
			return
		}
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Complete a login flow
//	@Description	Validates the state, exchanges the authorization code, stores the account on the session, and redirects to the original destination
//	@Description	A mismatched state sends the browser back through login initiation; other failures redirect to the configured error page
//	@Tags			Login
//	@Param			code	query	string	true	"Authorization code"
//	@Param			state	query	string	true	"State minted at initiation; its prefix selects the provider"
//	@Success		302	"Redirect to the original destination"
//	@Failure		404	{object}	gatesdk.GatewayError	"unknown provider prefix"
//	@Router			/login/callback [get].
func (h *LoginHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.LoginService.Callback(ctx, w, r)
	if err != nil {
		if errors.Is(err, service.ErrProviderNotFound) {
			gatesdk.ErrUnknownService.WriteError(w)
			return
		}
		slogx.FromContext(ctx).Warn("login callback failed", "error", err)
		if redirect == "" {
			gatesdk.ErrServerError.WriteError(w)
			return
		}
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}
