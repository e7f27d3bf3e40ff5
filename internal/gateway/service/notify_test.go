package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/sessiongate/pkg/cryptox"
)

type failingPurger struct{}

func (failingPurger) PurgeAccounts(ctx context.Context, sessionKey, userID string) error {
	return errors.New("backend down")
}

func notifyProvider(t *testing.T) domain.ProviderConfig {
	t.Helper()

	hash, err := cryptox.HashSecret("shared-secret")
	require.NoError(t, err)

	p := validProvider("idp")
	p.LogoutSecretHash = hash
	return p
}

func TestNotifyService_LoggedOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newService := func(t *testing.T, purger interface {
		PurgeAccounts(ctx context.Context, sessionKey, userID string) error
	}) *NotifyService {
		registry, err := NewRegistry([]domain.ProviderConfig{notifyProvider(t)}, nil)
		require.NoError(t, err)
		return &NotifyService{Registry: registry, Purger: purger}
	}

	t.Run("unknown provider", func(t *testing.T) {
		svc := newService(t, memory.NewStore())
		err := svc.LoggedOut(ctx, "other", "shared-secret", []byte(`{"user_id":"u-1"}`))
		require.ErrorIs(t, err, ErrProviderNotFound)
	})

	t.Run("wrong secret", func(t *testing.T) {
		svc := newService(t, memory.NewStore())
		err := svc.LoggedOut(ctx, "idp", "wrong", []byte(`{"user_id":"u-1"}`))
		require.ErrorIs(t, err, ErrUnauthorized)

		err = svc.LoggedOut(ctx, "idp", "", []byte(`{"user_id":"u-1"}`))
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("provider without configured hash rejects everything", func(t *testing.T) {
		registry, err := NewRegistry([]domain.ProviderConfig{validProvider("idp")}, nil)
		require.NoError(t, err)
		svc := &NotifyService{Registry: registry, Purger: memory.NewStore()}

		err = svc.LoggedOut(ctx, "idp", "anything", []byte(`{"user_id":"u-1"}`))
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("no purger is an authenticated no-op", func(t *testing.T) {
		svc := newService(t, nil)
		require.NoError(t, svc.LoggedOut(ctx, "idp", "shared-secret", []byte(`{"user_id":"u-1"}`)))
	})

	t.Run("bad body", func(t *testing.T) {
		svc := newService(t, memory.NewStore())

		err := svc.LoggedOut(ctx, "idp", "shared-secret", []byte(`not json`))
		require.ErrorIs(t, err, ErrInvalidNotification)

		err = svc.LoggedOut(ctx, "idp", "shared-secret", []byte(`{}`))
		require.ErrorIs(t, err, ErrInvalidNotification)
	})

	t.Run("purger failure propagates", func(t *testing.T) {
		svc := newService(t, failingPurger{})
		err := svc.LoggedOut(ctx, "idp", "shared-secret", []byte(`{"user_id":"u-1"}`))
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("purges matching accounts", func(t *testing.T) {
		st := memory.NewStore()
		svc := newService(t, st)

		sess := domain.NewSession("sess-1")
		sess.SetAccount("user", &domain.Account{User: domain.User{ID: "u-1"}})
		require.NoError(t, st.Save(ctx, sess))

		require.NoError(t, svc.LoggedOut(ctx, "idp", "shared-secret", []byte(`{"user_id":"u-1"}`)))

		got, err := st.Get(ctx, "sess-1")
		require.NoError(t, err)
		require.Nil(t, got.Account("user"))
	})
}
