// Package gatesdk is a small client for the session gateway's JSON
// endpoints: login status, health, and logout notifications.
package gatesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client talks to a running gateway. It keeps a cookie jar so the
// session cookie set by the gateway survives across calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client for the gateway at baseURL.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.HTTPClient.Do(req)
}

func decodeJSON(resp *http.Response, out any, wantStatus int) error {
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var ge GatewayError
		if err := json.Unmarshal(body, &ge); err == nil && ge.Code != "" {
			ge.StatusCode = resp.StatusCode
			return &ge
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsLoggedIn reports the caller's login status across all providers.
func (c *Client) IsLoggedIn(ctx context.Context) (*LoginStatus, error) {
	return c.loginStatus(ctx, "/isloggedin")
}

// IsLoggedInWith reports the caller's login status for one provider.
func (c *Client) IsLoggedInWith(ctx context.Context, service string) (*LoginStatus, error) {
	return c.loginStatus(ctx, "/isloggedin/"+service)
}

func (c *Client) loginStatus(ctx context.Context, path string) (*LoginStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	raw := map[string]json.RawMessage{}
	if err := decodeJSON(resp, &raw, http.StatusOK); err != nil {
		return nil, err
	}

	status := &LoginStatus{Users: map[string]map[string]any{}}
	for key, val := range raw {
		if key == "isLoggedin" {
			_ = json.Unmarshal(val, &status.IsLoggedIn)
			continue
		}
		user := map[string]any{}
		if err := json.Unmarshal(val, &user); err == nil {
			status.Users[key] = user
		}
	}
	return status, nil
}

// GetLiveness checks if the gateway is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness checks if the gateway and its store are ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// NotifyLoggedOut delivers a service-to-service logout notification
// for a user, authenticated by the shared secret.
func (c *Client) NotifyLoggedOut(ctx context.Context, service, secret, userID string) error {
	payload, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/loggedout/"+service,
		bytes.NewReader(payload), map[string]string{
			"Content-Type":   "application/json",
			"x-logout-token": secret,
		})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var ge GatewayError
		if err := json.Unmarshal(body, &ge); err == nil && ge.Code != "" {
			ge.StatusCode = resp.StatusCode
			return &ge
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return nil
}
