package service

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

// refreshExpiryMargin refreshes tokens slightly before they expire so
// in-flight requests never carry a token that lapses mid-call.
const refreshExpiryMargin = 5 * time.Minute

// RefreshService keeps session tokens fresh. It runs from middleware
// on every request passing through the gateway.
type RefreshService struct {
	Registry  *Registry
	Exchanger Exchanger

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *RefreshService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type refreshCandidate struct {
	provider domain.ProviderConfig
	key      string
}

// RefreshSessionTokens refreshes every eligible token in the session
// concurrently. All refreshes must succeed for the session to be
// updated; any failure leaves the session untouched so the request
// proceeds with the tokens it had (fail open). The caller persists the
// session when true is returned.
func (s *RefreshService) RefreshSessionTokens(ctx context.Context, sess *domain.Session) bool {
	now := s.now()

	var candidates []refreshCandidate
	seen := make(map[string]bool)
	for _, p := range s.Registry.All() {
		if !p.Refresh.Enabled {
			continue
		}
		key := p.Key()
		// Two providers sharing a session key would race on the same
		// account; the first configured one wins.
		if seen[key] {
			continue
		}
		seen[key] = true

		acct := sess.Account(key)
		if acct == nil {
			continue
		}
		if shouldRefresh(acct.Token, p.Refresh, now) {
			candidates = append(candidates, refreshCandidate{provider: p, key: key})
		}
	}
	if len(candidates) == 0 {
		return false
	}

	tokens := make([]domain.Token, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens[i], errs[i] = s.Exchanger.Refresh(ctx, c.provider, sess.Account(c.key).Token)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			slogx.FromContext(ctx).Warn("token refresh failed, keeping existing tokens",
				"provider", candidates[i].provider.Name,
				"error", err,
			)
			return false
		}
	}

	for i, c := range candidates {
		sess.Account(c.key).Token = tokens[i]
	}
	return true
}

// shouldRefresh reports whether a token is inside its refresh window
// and close enough to expiry to be worth refreshing now.
func shouldRefresh(tok domain.Token, policy domain.RefreshPolicy, now time.Time) bool {
	if tok.ExpiresAt.IsZero() {
		return false
	}

	withinWindow := tok.IssuedDate.IsZero() ||
		policy.Max == 0 ||
		tok.IssuedDate.Add(policy.Max).After(now)

	expiring := !tok.ExpiresAt.After(now.Add(refreshExpiryMargin))

	return withinWindow && expiring
}
