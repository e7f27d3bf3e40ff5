// Package upstream talks to the authorization servers' token and
// userinfo endpoints.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/pkg/jwtx"
)

var (
	// ErrNoIdentity is returned when neither a userinfo endpoint nor an
	// id_token yields a user identity for an exchanged code.
	ErrNoIdentity = errors.New("upstream: token response carries no identity")

	// ErrNoRefreshToken is returned when a refresh is requested for a
	// token that has no refresh credential.
	ErrNoRefreshToken = errors.New("upstream: no refresh token")
)

// Exchanger redeems authorization codes and refreshes access tokens
// against per-provider token endpoints.
type Exchanger struct {
	// HTTPClient is used for all upstream calls. Defaults to a client
	// with a 10 second timeout.
	HTTPClient *http.Client

	now func() time.Time
}

func NewExchanger(client *http.Client) *Exchanger {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Exchanger{HTTPClient: client, now: time.Now}
}

func (e *Exchanger) config(p domain.ProviderConfig, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: p.TokenURL},
		RedirectURL:  redirectURI,
	}
}

func (e *Exchanger) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.HTTPClient)
}

// Exchange redeems an authorization code and resolves the identity it
// belongs to. The identity comes from the provider's userinfo endpoint
// when one is configured, otherwise from the id_token claims.
func (e *Exchanger) Exchange(ctx context.Context, p domain.ProviderConfig, code, redirectURI string) (domain.User, domain.Token, error) {
	conf := e.config(p, redirectURI)

	tok, err := conf.Exchange(e.clientContext(ctx), code)
	if err != nil {
		return domain.User{}, domain.Token{}, fmt.Errorf("exchange code with %s: %w", p.Name, err)
	}

	user, err := e.resolveUser(ctx, p, tok)
	if err != nil {
		return domain.User{}, domain.Token{}, err
	}

	return user, e.mapToken(tok), nil
}

// Refresh trades a refresh token for a new access token. The refresh
// token is carried forward when the provider does not rotate it.
func (e *Exchanger) Refresh(ctx context.Context, p domain.ProviderConfig, tok domain.Token) (domain.Token, error) {
	if tok.RefreshToken == "" {
		return domain.Token{}, ErrNoRefreshToken
	}

	conf := e.config(p, "")
	src := conf.TokenSource(e.clientContext(ctx), &oauth2.Token{
		RefreshToken: tok.RefreshToken,
	})

	fresh, err := src.Token()
	if err != nil {
		return domain.Token{}, fmt.Errorf("refresh token with %s: %w", p.Name, err)
	}

	out := e.mapToken(fresh)
	if out.RefreshToken == "" {
		out.RefreshToken = tok.RefreshToken
	}
	return out, nil
}

func (e *Exchanger) mapToken(tok *oauth2.Token) domain.Token {
	return domain.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IssuedDate:   e.now(),
		ExpiresAt:    tok.Expiry,
	}
}

func (e *Exchanger) resolveUser(ctx context.Context, p domain.ProviderConfig, tok *oauth2.Token) (domain.User, error) {
	if p.UserinfoURL != "" {
		return e.fetchUserinfo(ctx, p, tok.AccessToken)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return domain.User{}, ErrNoIdentity
	}

	claims, err := jwtx.ParseIdentity(idToken)
	if err != nil {
		return domain.User{}, fmt.Errorf("parse id_token from %s: %w", p.Name, err)
	}
	return domain.User{ID: claims.Subject, Profile: claims.Raw}, nil
}

func (e *Exchanger) fetchUserinfo(ctx context.Context, p domain.ProviderConfig, accessToken string) (domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserinfoURL, nil)
	if err != nil {
		return domain.User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch userinfo from %s: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.User{}, fmt.Errorf("userinfo from %s: status %d: %s", p.Name, resp.StatusCode, body)
	}

	profile := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return domain.User{}, fmt.Errorf("decode userinfo from %s: %w", p.Name, err)
	}

	id := stringClaim(profile, "id")
	if id == "" {
		id = stringClaim(profile, "sub")
	}
	if id == "" {
		return domain.User{}, ErrNoIdentity
	}
	return domain.User{ID: id, Profile: profile}, nil
}

func stringClaim(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
