package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
)

// LogoutService coordinates logout with the provider: initiation sends
// the browser to the provider's logout redirect carrying an encrypted
// payload; the callback removes the account and regenerates the
// session identity.
type LogoutService struct {
	Registry *Registry
	Sessions *session.Manager
	Hooks    *HookRunner
	URLs     *URLBuilder

	// ErrorRedirectURL is where flow failures send the browser.
	// Defaults to "/".
	ErrorRedirectURL string
}

func (s *LogoutService) errorRedirect() string {
	if s.ErrorRedirectURL == "" {
		return "/"
	}
	return s.ErrorRedirectURL
}

// Initiate starts a logout against the named provider. A session with
// no account for the provider is silently sent home.
func (s *LogoutService) Initiate(ctx context.Context, w http.ResponseWriter, r *http.Request, providerName string) (string, error) {
	p, err := s.Registry.Lookup(providerName)
	if err != nil {
		return "", err
	}

	sess, err := s.Sessions.Load(ctx, r)
	if err != nil {
		return "", err
	}

	acct := sess.Account(p.Key())
	if acct == nil {
		return "/", nil
	}

	state := uuid.NewString()
	sess.SetLogoutState(p.Name, state)

	q := r.URL.Query()
	fromURL := q.Get("fromUrl")
	if fromURL == "" {
		fromURL = q.Get("fromurl")
	}
	if fromURL == "" {
		fromURL = "/"
	}
	sess.LogoutFromURL = fromURL

	userID := acct.User.ID
	if userID == "" {
		// v2 profiles may carry the id inside the profile document.
		userID, _ = acct.User.Profile["id"].(string)
	}

	hc := &HookContext{Request: r, Session: sess, Provider: p.Name}
	if err := s.Hooks.Run(ctx, p.Hooks.PreLogout, hc); err != nil {
		return s.errorRedirect(), fmt.Errorf("%w: %w", ErrHookFailed, err)
	}

	if err := s.Sessions.Save(ctx, w, sess); err != nil {
		return "", err
	}

	callback := requestOrigin(r) + s.URLs.BasePath + "/logout/callback/" + p.Name +
		"?state=" + url.QueryEscape(state)

	return s.URLs.BuildLogoutURL(p, LogoutParams{
		UserID:      userID,
		AccessToken: acct.Token.AccessToken,
		RedirectURI: callback,
	})
}

// Callback completes a logout. Hook errors are logged and ignored so
// local cleanup always happens; the account is removed and the session
// gets a fresh identity with its remaining fields intact.
func (s *LogoutService) Callback(ctx context.Context, w http.ResponseWriter, r *http.Request, providerName string) (string, error) {
	p, err := s.Registry.Lookup(providerName)
	if err != nil {
		return "", err
	}

	sess, err := s.Sessions.Load(ctx, r)
	if err != nil {
		return "", err
	}

	hc := &HookContext{Request: r, Session: sess, Provider: p.Name}
	s.Hooks.RunAll(ctx, p.Hooks.LogoutSuccess, hc)

	sess.DeleteAccount(p.Key())
	sess.ClearLogoutState(p.Name)

	fromURL := sess.LogoutFromURL
	if fromURL == "" {
		fromURL = "/"
	}
	sess.LogoutFromURL = ""

	if err := s.Sessions.Regenerate(ctx, sess); err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, w, sess); err != nil {
		return "", err
	}

	return fromURL, nil
}
