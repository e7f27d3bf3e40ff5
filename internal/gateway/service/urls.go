package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/pkg/cryptox"
)

// URLBuilder assembles the redirect URLs sent to authorization
// servers. BasePath is the gateway's mount path, prepended to the
// callback routes.
type URLBuilder struct {
	BasePath string
}

// LoginOptions are per-request overrides read from the initiating
// request's query string.
type LoginOptions struct {
	AuthType    string
	AuthMethods string
	Language    string
}

// LogoutParams feed the encrypted logout payload. Unlike login, logout
// has no per-request overrides; auth_type comes from the provider
// config alone.
type LogoutParams struct {
	UserID      string
	AccessToken string
	RedirectURI string
}

// BuildLoginURL returns the authorize URL for a provider. Host is the
// gateway's externally visible origin, used to derive the callback
// redirect_uri when the provider does not override it. Empty query
// values are dropped.
func (b *URLBuilder) BuildLoginURL(host string, p domain.ProviderConfig, state string, opts LoginOptions) (string, error) {
	authorize, err := url.Parse(strings.TrimSuffix(p.OAuthHost, "/") + "/" + string(p.Version) + "/authorize")
	if err != nil {
		return "", fmt.Errorf("provider %s: bad oauth host: %w", p.Name, err)
	}

	redirectURI := p.RedirectURI
	if redirectURI == "" {
		redirectURI = host + b.BasePath + "/login/callback"
	}

	authType := opts.AuthType
	if authType == "" {
		authType = p.AuthType
	}

	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}

	set("client_id", p.ClientID)
	set("redirect_uri", redirectURI)
	set("state", state)
	set("scope", p.Scope)
	set("auth_type", authType)
	set("lng", opts.Language)
	q.Set("save_consent", "true")
	q.Set("response_type", "code")

	switch p.Version {
	case domain.ProtocolV2:
		authMethods := opts.AuthMethods
		if authMethods == "" {
			authMethods = p.AuthMethods
		}
		set("auth_methods", authMethods)
		set("minimal_assurance_level", p.AssuranceLevel)
	default:
		set("service", p.Identifier)
	}

	authorize.RawQuery = q.Encode()
	return authorize.String(), nil
}

// BuildLogoutURL returns the provider's logout redirect URL. The user
// id, access token, and callback are packed into a JSON payload and
// AES-GCM encrypted with the client secret, so only the provider can
// read it.
func (b *URLBuilder) BuildLogoutURL(p domain.ProviderConfig, params LogoutParams) (string, error) {
	logout, err := url.Parse(strings.TrimSuffix(p.OAuthHost, "/") + "/" + string(p.Version) + "/logout/redirect/encrypted")
	if err != nil {
		return "", fmt.Errorf("provider %s: bad oauth host: %w", p.Name, err)
	}

	payload, err := json.Marshal(map[string]string{
		"user_id":      params.UserID,
		"access_token": params.AccessToken,
		"redirect_uri": params.RedirectURI,
	})
	if err != nil {
		return "", err
	}

	data, err := cryptox.EncryptPayload(cryptox.DeriveKey(p.ClientSecret), payload)
	if err != nil {
		return "", fmt.Errorf("provider %s: encrypt logout payload: %w", p.Name, err)
	}

	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("service", p.Identifier)
	q.Set("data", data)
	if p.AuthType != "" {
		q.Set("auth_type", p.AuthType)
	}

	logout.RawQuery = q.Encode()
	return logout.String(), nil
}

// requestOrigin reconstructs the externally visible origin of a
// request, honouring forwarding headers set by a fronting proxy.
func requestOrigin(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}
