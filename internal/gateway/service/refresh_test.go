package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
)

func TestShouldRefresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		token  domain.Token
		policy domain.RefreshPolicy
		want   bool
	}{
		{
			name:  "expiring soon",
			token: domain.Token{IssuedDate: now.Add(-time.Hour), ExpiresAt: now.Add(time.Minute)},
			want:  true,
		},
		{
			name:  "already expired",
			token: domain.Token{IssuedDate: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)},
			want:  true,
		},
		{
			name:  "plenty of time left",
			token: domain.Token{IssuedDate: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)},
			want:  false,
		},
		{
			name:  "exactly at the margin",
			token: domain.Token{ExpiresAt: now.Add(refreshExpiryMargin)},
			want:  true,
		},
		{
			name:  "no expiry recorded",
			token: domain.Token{IssuedDate: now.Add(-time.Hour)},
			want:  false,
		},
		{
			name:   "inside refresh window",
			token:  domain.Token{IssuedDate: now.Add(-time.Hour), ExpiresAt: now},
			policy: domain.RefreshPolicy{Max: 2 * time.Hour},
			want:   true,
		},
		{
			name:   "refresh window exhausted",
			token:  domain.Token{IssuedDate: now.Add(-3 * time.Hour), ExpiresAt: now},
			policy: domain.RefreshPolicy{Max: 2 * time.Hour},
			want:   false,
		},
		{
			name:   "no issued date bypasses the window",
			token:  domain.Token{ExpiresAt: now},
			policy: domain.RefreshPolicy{Max: time.Minute},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, shouldRefresh(tt.token, tt.policy, now))
		})
	}
}

func refreshTestRegistry(t *testing.T, providers ...domain.ProviderConfig) *Registry {
	t.Helper()
	r, err := NewRegistry(providers, nil)
	require.NoError(t, err)
	return r
}

func TestRefreshService_RefreshSessionTokens(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	refreshable := func(name, key string) domain.ProviderConfig {
		p := validProvider(name)
		p.SessionKey = key
		p.Refresh = domain.RefreshPolicy{Enabled: true}
		return p
	}

	expiringToken := domain.Token{
		AccessToken:  "old",
		RefreshToken: "rt",
		IssuedDate:   now.Add(-time.Hour),
		ExpiresAt:    now.Add(time.Minute),
	}

	t.Run("refreshes all eligible tokens", func(t *testing.T) {
		fx := &fakeExchanger{refreshFn: func(p domain.ProviderConfig, tok domain.Token) (domain.Token, error) {
			return domain.Token{AccessToken: "new-" + p.Name, RefreshToken: tok.RefreshToken}, nil
		}}
		svc := &RefreshService{
			Registry:  refreshTestRegistry(t, refreshable("one", "one"), refreshable("two", "two")),
			Exchanger: fx,
			Now:       func() time.Time { return now },
		}

		sess := domain.NewSession("s")
		sess.SetAccount("one", &domain.Account{Token: expiringToken})
		sess.SetAccount("two", &domain.Account{Token: expiringToken})

		require.True(t, svc.RefreshSessionTokens(ctx, sess))
		require.Equal(t, "new-one", sess.Account("one").Token.AccessToken)
		require.Equal(t, "new-two", sess.Account("two").Token.AccessToken)
		require.ElementsMatch(t, []string{"one", "two"}, fx.refreshes)
	})

	t.Run("skips disabled ineligible and missing accounts", func(t *testing.T) {
		disabled := validProvider("off")
		disabled.SessionKey = "off"

		fx := &fakeExchanger{}
		svc := &RefreshService{
			Registry: refreshTestRegistry(t,
				refreshable("one", "one"), refreshable("absent", "absent"), disabled),
			Exchanger: fx,
			Now:       func() time.Time { return now },
		}

		sess := domain.NewSession("s")
		sess.SetAccount("one", &domain.Account{Token: domain.Token{
			AccessToken: "fresh", ExpiresAt: now.Add(time.Hour),
		}})
		sess.SetAccount("off", &domain.Account{Token: expiringToken})

		require.False(t, svc.RefreshSessionTokens(ctx, sess))
		require.Empty(t, fx.refreshes)
	})

	t.Run("any failure leaves the session untouched", func(t *testing.T) {
		fx := &fakeExchanger{refreshFn: func(p domain.ProviderConfig, tok domain.Token) (domain.Token, error) {
			if p.Name == "two" {
				return domain.Token{}, errors.New("provider down")
			}
			return domain.Token{AccessToken: "new-" + p.Name}, nil
		}}
		svc := &RefreshService{
			Registry:  refreshTestRegistry(t, refreshable("one", "one"), refreshable("two", "two")),
			Exchanger: fx,
			Now:       func() time.Time { return now },
		}

		sess := domain.NewSession("s")
		sess.SetAccount("one", &domain.Account{Token: expiringToken})
		sess.SetAccount("two", &domain.Account{Token: expiringToken})

		require.False(t, svc.RefreshSessionTokens(ctx, sess))
		require.Equal(t, "old", sess.Account("one").Token.AccessToken)
		require.Equal(t, "old", sess.Account("two").Token.AccessToken)
	})

	t.Run("shared session key refreshed once", func(t *testing.T) {
		fx := &fakeExchanger{refreshFn: func(p domain.ProviderConfig, tok domain.Token) (domain.Token, error) {
			return domain.Token{AccessToken: "new"}, nil
		}}
		svc := &RefreshService{
			Registry:  refreshTestRegistry(t, refreshable("one", "user"), refreshable("two", "user")),
			Exchanger: fx,
			Now:       func() time.Time { return now },
		}

		sess := domain.NewSession("s")
		sess.SetAccount("user", &domain.Account{Token: expiringToken})

		require.True(t, svc.RefreshSessionTokens(ctx, sess))
		require.Equal(t, []string{"one"}, fx.refreshes)
	})
}
