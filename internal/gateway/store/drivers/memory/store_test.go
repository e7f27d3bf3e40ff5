package memory

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store"
	"github.com/stretchr/testify/require"
)

func TestStore_Roundtrip(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	sess := domain.NewSession("sess-1")
	sess.FromURL = "/dashboard"
	sess.SetLoginState("idp", "idp_abc")
	sess.SetAccount("user", &domain.Account{
		User: domain.User{ID: "u-1", ServiceType: "idp"},
	})

	require.NoError(t, s.Save(ctx, sess))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, sess.FromURL, got.FromURL)
	require.Equal(t, "idp_abc", got.LoginStates["idp"])
	require.Equal(t, "u-1", got.Account("user").User.ID)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := NewStore()
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.NewSession("sess-1")))
	require.NoError(t, s.Delete(ctx, "sess-1"))

	_, err := s.Get(ctx, "sess-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is fine.
	require.NoError(t, s.Delete(ctx, "sess-1"))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	sess := domain.NewSession("sess-1")
	sess.SetLoginState("idp", "idp_abc")
	require.NoError(t, s.Save(ctx, sess))

	first, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	first.LoginStates["idp"] = "mutated"

	second, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "idp_abc", second.LoginStates["idp"])
}

func TestStore_PurgeAccounts(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	mkSession := func(id, userID string) *domain.Session {
		sess := domain.NewSession(id)
		sess.SetAccount("user", &domain.Account{User: domain.User{ID: userID}})
		return sess
	}

	require.NoError(t, s.Save(ctx, mkSession("a", "u-1")))
	require.NoError(t, s.Save(ctx, mkSession("b", "u-1")))
	require.NoError(t, s.Save(ctx, mkSession("c", "u-2")))

	require.NoError(t, s.PurgeAccounts(ctx, "user", "u-1"))

	for _, tc := range []struct {
		id     string
		wantID string
	}{
		{"a", ""},
		{"b", ""},
		{"c", "u-2"},
	} {
		got, err := s.Get(ctx, tc.id)
		require.NoError(t, err)
		if tc.wantID == "" {
			require.Nil(t, got.Account("user"))
		} else {
			require.Equal(t, tc.wantID, got.Account("user").User.ID)
		}
	}
}
