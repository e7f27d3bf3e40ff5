package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestParseIdentity(t *testing.T) {
	t.Run("extracts well known claims", func(t *testing.T) {
		now := time.Now().Truncate(time.Second)
		idToken := signTestToken(t, jwt.MapClaims{
			"sub":                "user-42",
			"name":               "Test User",
			"email":              "test@example.com",
			"preferred_username": "testuser",
			"iat":                now.Unix(),
			"exp":                now.Add(time.Hour).Unix(),
			"custom":             "kept",
		})

		identity, err := ParseIdentity(idToken)
		require.NoError(t, err)
		require.Equal(t, "user-42", identity.Subject)
		require.Equal(t, "Test User", identity.Name)
		require.Equal(t, "test@example.com", identity.Email)
		require.Equal(t, "testuser", identity.PreferredUsername)
		require.Equal(t, now.Unix(), identity.IssuedAt.Unix())
		require.Equal(t, now.Add(time.Hour).Unix(), identity.ExpiresAt.Unix())
		require.Equal(t, "kept", identity.Raw["custom"])
	})

	t.Run("optional claims may be absent", func(t *testing.T) {
		idToken := signTestToken(t, jwt.MapClaims{"sub": "user-1"})

		identity, err := ParseIdentity(idToken)
		require.NoError(t, err)
		require.Equal(t, "user-1", identity.Subject)
		require.Empty(t, identity.Email)
		require.True(t, identity.ExpiresAt.IsZero())
	})

	t.Run("missing subject rejected", func(t *testing.T) {
		idToken := signTestToken(t, jwt.MapClaims{"name": "No Subject"})

		_, err := ParseIdentity(idToken)
		require.ErrorIs(t, err, ErrNoSubject)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ParseIdentity("not.a.jwt")
		require.ErrorIs(t, err, ErrMalformed)

		_, err = ParseIdentity("")
		require.ErrorIs(t, err, ErrMalformed)
	})
}
