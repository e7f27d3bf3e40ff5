package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
)

// Exchanger redeems authorization codes and refreshes tokens. The
// upstream package provides the production implementation.
type Exchanger interface {
	Exchange(ctx context.Context, p domain.ProviderConfig, code, redirectURI string) (domain.User, domain.Token, error)
	Refresh(ctx context.Context, p domain.ProviderConfig, tok domain.Token) (domain.Token, error)
}

// LoginService drives the login state machine: initiation mints a
// single-use state and redirects to the provider; the callback
// validates the state, exchanges the code, and stores the account.
type LoginService struct {
	Registry  *Registry
	Sessions  *session.Manager
	Exchanger Exchanger
	Hooks     *HookRunner
	URLs      *URLBuilder

	// ErrorRedirectURL is where flow failures send the browser.
	// Defaults to "/".
	ErrorRedirectURL string
}

func (s *LoginService) errorRedirect() string {
	if s.ErrorRedirectURL == "" {
		return "/"
	}
	return s.ErrorRedirectURL
}

// Initiate starts a login against the named provider. It persists the
// session before returning, so the returned redirect always refers to
// durable state. Returns ErrProviderNotFound without side effects for
// unknown providers.
func (s *LoginService) Initiate(ctx context.Context, w http.ResponseWriter, r *http.Request, providerName string) (string, error) {
	p, err := s.Registry.Lookup(providerName)
	if err != nil {
		return "", err
	}

	sess, err := s.Sessions.Load(ctx, r)
	if err != nil {
		return "", err
	}

	state := p.Name + "_" + uuid.NewString()
	sess.SetLoginState(p.Name, state)

	fromURL := r.URL.Query().Get("fromUrl")
	if fromURL == "" {
		fromURL = "/"
	}
	sess.FromURL = fromURL

	hc := &HookContext{Request: r, Session: sess, Provider: p.Name}
	if err := s.Hooks.Run(ctx, p.Hooks.PreLogin, hc); err != nil {
		return s.errorRedirect(), fmt.Errorf("%w: %w", ErrHookFailed, err)
	}

	if err := s.Sessions.Save(ctx, w, sess); err != nil {
		return "", err
	}

	q := r.URL.Query()
	return s.URLs.BuildLoginURL(requestOrigin(r), p, state, LoginOptions{
		AuthType:    q.Get("auth_type"),
		AuthMethods: q.Get("auth_methods"),
		Language:    q.Get("lng"),
	})
}

// Callback completes a login. Non-nil errors other than
// ErrProviderNotFound come with a redirect the handler should follow.
func (s *LoginService) Callback(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		return s.errorRedirect(), ErrMissingParams
	}

	p, err := s.Registry.FromState(state)
	if err != nil {
		return "", err
	}

	sess, err := s.Sessions.Load(ctx, r)
	if err != nil {
		return "", err
	}

	// A mismatched callback leaves the pending state untouched, so a
	// forged or stale callback cannot cancel an in-flight login.
	pending, had := sess.LoginState(p.Name)
	if !had || pending != state {
		return s.reinitiateURL(p.Name, sess.FromURL), ErrStateMismatch
	}

	// The matched state is single-use: clear it durably before the
	// exchange so a replayed callback can never redeem a second code.
	sess.TakeLoginState(p.Name)
	if err := s.Sessions.Save(ctx, w, sess); err != nil {
		return "", err
	}

	redirectURI := p.RedirectURI
	if redirectURI == "" {
		redirectURI = requestOrigin(r) + s.URLs.BasePath + "/login/callback"
	}

	user, tok, err := s.Exchanger.Exchange(ctx, p, code, redirectURI)
	if err != nil {
		return s.errorRedirect(), fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	user.ServiceType = p.Name
	sess.SetAccount(p.Key(), &domain.Account{User: user, Token: tok})

	hc := &HookContext{Request: r, Session: sess, Provider: p.Name}
	if err := s.Hooks.Run(ctx, p.Hooks.LoginSuccess, hc); err != nil {
		return s.errorRedirect(), fmt.Errorf("%w: %w", ErrHookFailed, err)
	}

	if err := s.Sessions.Save(ctx, w, sess); err != nil {
		return "", err
	}

	fromURL := sess.FromURL
	if fromURL == "" {
		fromURL = "/"
	}
	return fromURL, nil
}

// reinitiateURL sends the browser back through login initiation after
// a state mismatch, carrying the original destination along.
func (s *LoginService) reinitiateURL(provider, fromURL string) string {
	u := s.URLs.BasePath + "/login/" + provider
	if fromURL != "" {
		u += "?fromUrl=" + url.QueryEscape(fromURL)
	}
	return u
}
