package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store/drivers/memory"
)

// fakeExchanger records calls and returns canned results.
type fakeExchanger struct {
	mu sync.Mutex

	user        domain.User
	token       domain.Token
	exchangeErr error

	refreshFn func(p domain.ProviderConfig, tok domain.Token) (domain.Token, error)

	gotCode        string
	gotRedirectURI string
	exchanges      int
	refreshes      []string
}

func (f *fakeExchanger) Exchange(ctx context.Context, p domain.ProviderConfig, code, redirectURI string) (domain.User, domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCode = code
	f.gotRedirectURI = redirectURI
	f.exchanges++
	if f.exchangeErr != nil {
		return domain.User{}, domain.Token{}, f.exchangeErr
	}
	return f.user, f.token, nil
}

func (f *fakeExchanger) Refresh(ctx context.Context, p domain.ProviderConfig, tok domain.Token) (domain.Token, error) {
	f.mu.Lock()
	f.refreshes = append(f.refreshes, p.Name)
	fn := f.refreshFn
	f.mu.Unlock()
	if fn != nil {
		return fn(p, tok)
	}
	return tok, nil
}

// testEnv wires the services against a memory store.
type testEnv struct {
	registry  *Registry
	sessions  *session.Manager
	exchanger *fakeExchanger
	hooks     *HookRunner
	urls      *URLBuilder

	login  *LoginService
	logout *LogoutService
}

func newTestEnv(t *testing.T, hooks *HookRunner, providers ...domain.ProviderConfig) *testEnv {
	t.Helper()

	if hooks == nil {
		hooks = NewHookRunner()
	}
	registry, err := NewRegistry(providers, hooks)
	require.NoError(t, err)

	env := &testEnv{
		registry:  registry,
		sessions:  session.NewManager(memory.NewStore(), "", false),
		exchanger: &fakeExchanger{},
		hooks:     hooks,
		urls:      &URLBuilder{BasePath: "/auth"},
	}
	env.login = &LoginService{
		Registry:         env.registry,
		Sessions:         env.sessions,
		Exchanger:        env.exchanger,
		Hooks:            env.hooks,
		URLs:             env.urls,
		ErrorRedirectURL: "/error",
	}
	env.logout = &LogoutService{
		Registry:         env.registry,
		Sessions:         env.sessions,
		Hooks:            env.hooks,
		URLs:             env.urls,
		ErrorRedirectURL: "/error",
	}
	return env
}

// withSessionCookie copies the session cookie from a recorder onto a
// follow-up request, like a browser would.
func withSessionCookie(r *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}
