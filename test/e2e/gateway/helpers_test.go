package gateway_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	gatewayhttp "github.com/aussiebroadwan/sessiongate/internal/gateway/http"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/upstream"
	"github.com/aussiebroadwan/sessiongate/pkg/cryptox"
)

const (
	clientID     = "gateway-client"
	clientSecret = "gateway-secret"
	logoutSecret = "shared-logout-secret"
	upstreamUser = "user-1"
)

// fakeIdentityProvider is a minimal authorization server: it approves
// every authorize request immediately, issues bearer tokens, serves a
// userinfo document, and honours the encrypted logout redirect.
type fakeIdentityProvider struct {
	server *httptest.Server

	mu       sync.Mutex
	refresh  int
	loggedIn bool
}

func newFakeIdentityProvider(t *testing.T) *fakeIdentityProvider {
	t.Helper()

	p := &fakeIdentityProvider{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/authorize", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client_id") != clientID || q.Get("redirect_uri") == "" {
			http.Error(w, "bad authorize request", http.StatusBadRequest)
			return
		}

		p.mu.Lock()
		p.loggedIn = true
		p.mu.Unlock()

		dest := fmt.Sprintf("%s?code=%s&state=%s", q.Get("redirect_uri"), "code-123", q.Get("state"))
		http.Redirect(w, r, dest, http.StatusFound)
	})

	mux.HandleFunc("POST /v1/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		var access string
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "code-123" {
				http.Error(w, "unknown code", http.StatusBadRequest)
				return
			}
			access = "access-0"
		case "refresh_token":
			p.mu.Lock()
			p.refresh++
			access = fmt.Sprintf("access-%d", p.refresh)
			p.mu.Unlock()
		default:
			http.Error(w, "unsupported grant", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})

	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   upstreamUser,
			"name": "Test User",
		})
	})

	mux.HandleFunc("GET /v1/logout/redirect/encrypted", func(w http.ResponseWriter, r *http.Request) {
		key := cryptox.DeriveKey(clientSecret)
		plaintext, err := cryptox.DecryptPayload(key, r.URL.Query().Get("data"))
		if err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		var payload struct {
			RedirectURI string `json:"redirect_uri"`
		}
		if err := json.Unmarshal(plaintext, &payload); err != nil || payload.RedirectURI == "" {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		p.mu.Lock()
		p.loggedIn = false
		p.mu.Unlock()

		http.Redirect(w, r, payload.RedirectURI, http.StatusFound)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeIdentityProvider) upstreamLoggedIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loggedIn
}

func (p *fakeIdentityProvider) providerConfig(t *testing.T, name string) domain.ProviderConfig {
	t.Helper()

	hash, err := cryptox.HashSecret(logoutSecret)
	require.NoError(t, err)

	return domain.ProviderConfig{
		Name:             name,
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		OAuthHost:        p.server.URL,
		TokenURL:         p.server.URL + "/v1/token",
		UserinfoURL:      p.server.URL + "/userinfo",
		Scope:            "profile",
		LogoutSecretHash: hash,
		Refresh:          domain.RefreshPolicy{Enabled: true},
	}
}

// startGateway runs a fully wired gateway over a memory store and
// returns its base URL.
func startGateway(t *testing.T, providers ...domain.ProviderConfig) string {
	t.Helper()

	st := memory.NewStore()
	sessions := session.NewManager(st, "", false)
	hooks := service.NewHookRunner()

	registry, err := service.NewRegistry(providers, hooks)
	require.NoError(t, err)

	exchanger := upstream.NewExchanger(nil)
	urls := &service.URLBuilder{}

	r := gatewayhttp.NewRouter("", "e2e", st, slog.Default())
	r.Sessions = sessions
	r.Registry = registry
	r.LoginService = &service.LoginService{
		Registry: registry, Sessions: sessions, Exchanger: exchanger,
		Hooks: hooks, URLs: urls,
	}
	r.LogoutService = &service.LogoutService{
		Registry: registry, Sessions: sessions, Hooks: hooks, URLs: urls,
	}
	r.RefreshService = &service.RefreshService{Registry: registry, Exchanger: exchanger}
	r.NotifyService = &service.NotifyService{Registry: registry, Purger: st}
	r.ApplyRoutes()

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server.URL
}
