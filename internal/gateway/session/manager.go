// Package session maps browser cookies to stored session records.
package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store"
	"github.com/aussiebroadwan/sessiongate/pkg/idx"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "sessiongate_session"

// Manager loads and persists sessions. The cookie value is an opaque
// ULID; all session data lives server-side in the store.
type Manager struct {
	Store store.Store

	CookieName   string
	CookieSecure bool
}

func NewManager(st store.Store, cookieName string, secure bool) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Manager{Store: st, CookieName: cookieName, CookieSecure: secure}
}

// Load returns the session referenced by the request cookie, or a
// fresh empty session when the cookie is absent, malformed, or points
// at a record that no longer exists. A fresh session is not persisted
// until Save is called.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(m.CookieName)
	if err != nil || cookie.Value == "" {
		return domain.NewSession(idx.New().String()), nil
	}
	if _, err := idx.Parse(cookie.Value); err != nil {
		return domain.NewSession(idx.New().String()), nil
	}

	sess, err := m.Store.Get(ctx, cookie.Value)
	if errors.Is(err, store.ErrNotFound) {
		return domain.NewSession(idx.New().String()), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists the session and refreshes the cookie. The store write
// completes before the cookie is set, so a redirect issued after Save
// always refers to durable state.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
	if err := m.Store.Save(ctx, sess); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Regenerate gives the session a new identity, deleting the old record
// so the previous cookie value can never be replayed. All fields the
// caller left on the session survive under the new ID. The caller must
// Save afterwards to persist the new record and reset the cookie.
func (m *Manager) Regenerate(ctx context.Context, sess *domain.Session) error {
	oldID := sess.ID
	sess.ID = idx.New().String()

	if oldID == "" {
		return nil
	}
	return m.Store.Delete(ctx, oldID)
}
