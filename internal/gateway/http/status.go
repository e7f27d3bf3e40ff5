package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/pkg/gatesdk"
	"github.com/aussiebroadwan/sessiongate/pkg/httpx"
)

// StatusHandler reports whether the caller's session holds accounts.
// Both routes sit behind the refresh middleware so reported tokens are
// current.
type StatusHandler struct {
	Registry *service.Registry
}

// HandleAll godoc
//
//	@Summary		Login status across all providers
//	@Description	Returns isLoggedin plus one user document per session key the caller holds an account under
//	@Tags			Status
//	@Produce		json
//	@Success		200	{object}	map[string]any	"isLoggedin plus user documents"
//	@Router			/isloggedin [get].
func (h *StatusHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	response := map[string]any{"isLoggedin": false}
	if sess != nil {
		seen := map[string]bool{}
		for _, p := range h.Registry.All() {
			key := p.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			if acct := sess.Account(key); acct != nil {
				response["isLoggedin"] = true
				response[key] = acct.User
			}
		}
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

// HandleService godoc
//
//	@Summary		Login status for one provider
//	@Description	Returns isLoggedin and, when logged in, the user document under the provider's session key
//	@Tags			Status
//	@Produce		json
//	@Param			service	path		string			true	"Provider name"
//	@Success		200		{object}	map[string]any	"isLoggedin plus user document"
//	@Failure		404		{object}	gatesdk.GatewayError	"unknown service"
//	@Router			/isloggedin/{service} [get].
func (h *StatusHandler) HandleService(w http.ResponseWriter, r *http.Request) {
	p, err := h.Registry.Lookup(r.PathValue("service"))
	if err != nil {
		if errors.Is(err, service.ErrProviderNotFound) {
			gatesdk.ErrUnknownService.WriteError(w)
			return
		}
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	response := map[string]any{"isLoggedin": false}
	sess := sessionFrom(r.Context())

	var acct *domain.Account
	if sess != nil {
		acct = sess.Account(p.Key())
	}
	if acct != nil {
		response["isLoggedin"] = true
		response[p.Key()] = acct.User
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
