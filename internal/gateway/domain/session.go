package domain

import "time"

// Session is the gateway's per-browser record. It is persisted as a
// JSON document keyed by ID, which is the value of the session cookie.
type Session struct {
	ID string `json:"id"`

	// FromURL is where the browser lands after a successful login.
	FromURL string `json:"fromUrl,omitempty"`

	// LogoutFromURL is where the browser lands after logout completes.
	LogoutFromURL string `json:"logoutFromUrl,omitempty"`

	// LoginStates holds single-use anti-CSRF tokens per provider,
	// minted at login initiation and cleared at the callback.
	LoginStates map[string]string `json:"loginStates,omitempty"`

	// LogoutStates correlates logout callbacks per provider.
	LogoutStates map[string]string `json:"logoutStates,omitempty"`

	// Accounts maps a provider's session key to the authenticated
	// identity and its tokens.
	Accounts map[string]*Account `json:"accounts,omitempty"`
}

// Account pairs a user with their tokens. A token never exists in a
// session without the user it belongs to.
type Account struct {
	User  User  `json:"user"`
	Token Token `json:"token"`
}

type User struct {
	ID          string         `json:"id"`
	ServiceType string         `json:"serviceType"`
	Profile     map[string]any `json:"profile,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Token carries upstream OAuth2 credentials. ExpiresAt is the absolute
// expiry instant of the access token.
type Token struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	IssuedDate   time.Time `json:"issuedDate,omitzero"`
	ExpiresAt    time.Time `json:"expiresIn,omitzero"`
}

// NewSession returns an empty session with the given ID.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Account returns the account stored under key, or nil.
func (s *Session) Account(key string) *Account {
	if s.Accounts == nil {
		return nil
	}
	return s.Accounts[key]
}

// SetAccount stores an account under key, allocating the map if needed.
func (s *Session) SetAccount(key string, a *Account) {
	if s.Accounts == nil {
		s.Accounts = make(map[string]*Account)
	}
	s.Accounts[key] = a
}

// DeleteAccount removes the account stored under key.
func (s *Session) DeleteAccount(key string) {
	delete(s.Accounts, key)
}

// SetLoginState records the pending login state for a provider.
func (s *Session) SetLoginState(provider, state string) {
	if s.LoginStates == nil {
		s.LoginStates = make(map[string]string)
	}
	s.LoginStates[provider] = state
}

// LoginState returns the pending login state for a provider without
// consuming it.
func (s *Session) LoginState(provider string) (string, bool) {
	state, ok := s.LoginStates[provider]
	return state, ok
}

// TakeLoginState returns and clears the pending login state for a
// provider. The second return reports whether a state was present.
func (s *Session) TakeLoginState(provider string) (string, bool) {
	state, ok := s.LoginStates[provider]
	if ok {
		delete(s.LoginStates, provider)
	}
	return state, ok
}

// SetLogoutState records the pending logout correlation token.
func (s *Session) SetLogoutState(provider, state string) {
	if s.LogoutStates == nil {
		s.LogoutStates = make(map[string]string)
	}
	s.LogoutStates[provider] = state
}

// ClearLogoutState removes the pending logout token for a provider.
func (s *Session) ClearLogoutState(provider string) {
	delete(s.LogoutStates, provider)
}
