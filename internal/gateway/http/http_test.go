package http

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/upstream"
)

// newTestRouter wires a full router against a memory store and a stub
// exchanger that never reaches the network.
func newTestRouter(t *testing.T, providers ...domain.ProviderConfig) (*Router, *memory.Store) {
	t.Helper()

	st := memory.NewStore()
	sessions := session.NewManager(st, "", false)
	hooks := service.NewHookRunner()

	registry, err := service.NewRegistry(providers, hooks)
	require.NoError(t, err)

	exchanger := upstream.NewExchanger(nil)
	urls := &service.URLBuilder{}

	r := NewRouter("", "test", st, slog.Default())
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
	return r, st
}

func testProvider(name string) domain.ProviderConfig {
	return domain.ProviderConfig{
		Name:      name,
		ClientID:  "client-1",
		OAuthHost: "https://auth.example.com",
		TokenURL:  "https://auth.example.com/v1/token",
	}
}

// seedSession persists a session and returns its cookie value.
func seedSession(t *testing.T, st *memory.Store, sess *domain.Session) string {
	t.Helper()
	require.NoError(t, st.Save(t.Context(), sess))
	return sess.ID
}
