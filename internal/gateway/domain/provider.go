package domain

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ProtocolVersion selects the authorization server's URL scheme and the
// query parameters sent alongside authorize and logout redirects.
type ProtocolVersion string

const (
	ProtocolV1 ProtocolVersion = "v1"
	ProtocolV2 ProtocolVersion = "v2"
)

// DefaultSessionKey is the account key used when a provider does not
// configure one.
const DefaultSessionKey = "user"

// RefreshPolicy controls background token refresh for a provider.
// Max bounds how long after issuance a token may still be refreshed;
// zero means no bound.
type RefreshPolicy struct {
	Enabled bool          `yaml:"enabled"`
	Max     time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts max as a Go duration string ("12h", "30m").
func (rp *RefreshPolicy) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled bool   `yaml:"enabled"`
		Max     string `yaml:"max"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	rp.Enabled = raw.Enabled
	rp.Max = 0
	if raw.Max != "" {
		max, err := time.ParseDuration(raw.Max)
		if err != nil {
			return fmt.Errorf("refresh max %q: %w", raw.Max, err)
		}
		rp.Max = max
	}
	return nil
}

// HookNames lists the hooks a provider runs at each point of the login
// and logout flows, in execution order. Names are resolved against the
// hook runner at startup.
type HookNames struct {
	PreLogin      []string `yaml:"pre_login"`
	LoginSuccess  []string `yaml:"login_success"`
	PreLogout     []string `yaml:"pre_logout"`
	LogoutSuccess []string `yaml:"logout_success"`
}

type ProviderConfig struct {
	// Name keys the registry and appears in routes and state tokens.
	Name string `yaml:"name"`

	// Identifier is the upstream service identifier, sent as the
	// "service" query parameter on v1 authorize URLs.
	Identifier string `yaml:"identifier"`

	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// OAuthHost is the base URL of the authorization server. Authorize
	// and logout paths are appended per protocol version.
	OAuthHost string `yaml:"oauth_host"`

	TokenURL string `yaml:"token_url"`

	// UserinfoURL is optional. When empty the user profile is read from
	// the id_token returned by the token endpoint.
	UserinfoURL string `yaml:"userinfo_url"`

	// RedirectURI overrides the derived `<host><basePath>/login/callback`.
	RedirectURI string `yaml:"redirect_uri"`

	Scope string `yaml:"scope"`

	// SessionKey is the account key in the session. Defaults to "user".
	SessionKey string `yaml:"session_key"`

	Version ProtocolVersion `yaml:"version"`

	// AuthType is sent when set and not overridden by the request.
	AuthType string `yaml:"auth_type"`

	// AuthMethods and AssuranceLevel apply to v2 authorize URLs only.
	AuthMethods    string `yaml:"auth_methods"`
	AssuranceLevel string `yaml:"assurance_level"`

	Hooks   HookNames     `yaml:"hooks"`
	Refresh RefreshPolicy `yaml:"refresh"`

	// LogoutSecretHash is the argon2id hash of the shared secret that
	// authenticates service-to-service logout notifications.
	LogoutSecretHash string `yaml:"logout_secret_hash"`
}

// Key returns the provider's session key, falling back to the default.
func (p ProviderConfig) Key() string {
	if p.SessionKey == "" {
		return DefaultSessionKey
	}
	return p.SessionKey
}
