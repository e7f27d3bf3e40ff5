package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiongate/pkg/gatesdk"
)

// TestLogoutFlow logs in, then drives the coordinated logout: the
// gateway hands the browser to the provider's encrypted logout
// endpoint, the provider bounces back through the logout callback, and
// the session ends up anonymous on both sides.
func TestLogoutFlow(t *testing.T) {
	idp := newFakeIdentityProvider(t)
	baseURL := startGateway(t, idp.providerConfig(t, "idp"))

	client := gatesdk.NewClient(baseURL)

	resp, err := client.HTTPClient.Get(baseURL + "/login/idp")
	require.NoError(t, err)
	resp.Body.Close()

	status, err := client.IsLoggedIn(t.Context())
	require.NoError(t, err)
	require.True(t, status.IsLoggedIn)
	require.True(t, idp.upstreamLoggedIn())

	resp, err = client.HTTPClient.Get(baseURL + "/logout/idp?fromUrl=/bye")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "/bye", resp.Request.URL.Path)

	status, err = client.IsLoggedIn(t.Context())
	require.NoError(t, err)
	require.False(t, status.IsLoggedIn)
	require.False(t, idp.upstreamLoggedIn())
}

// TestLoggedOutNotification purges a user's accounts via the
// service-to-service endpoint without any browser involvement.
func TestLoggedOutNotification(t *testing.T) {
	idp := newFakeIdentityProvider(t)
	baseURL := startGateway(t, idp.providerConfig(t, "idp"))

	client := gatesdk.NewClient(baseURL)

	resp, err := client.HTTPClient.Get(baseURL + "/login/idp")
	require.NoError(t, err)
	resp.Body.Close()

	status, err := client.IsLoggedIn(t.Context())
	require.NoError(t, err)
	require.True(t, status.IsLoggedIn)

	// A second service reports the upstream logout.
	notifier := gatesdk.NewClient(baseURL)
	require.NoError(t, notifier.NotifyLoggedOut(t.Context(), "idp", logoutSecret, upstreamUser))

	status, err = client.IsLoggedIn(t.Context())
	require.NoError(t, err)
	require.False(t, status.IsLoggedIn)
}

func TestLoggedOutNotification_BadSecret(t *testing.T) {
	idp := newFakeIdentityProvider(t)
	baseURL := startGateway(t, idp.providerConfig(t, "idp"))

	err := gatesdk.NewClient(baseURL).NotifyLoggedOut(t.Context(), "idp", "wrong", upstreamUser)
	require.Error(t, err)

	var ge *gatesdk.GatewayError
	require.ErrorAs(t, err, &ge)
	require.Equal(t, 401, ge.StatusCode)
}
