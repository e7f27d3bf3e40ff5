package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/store"
	"github.com/aussiebroadwan/sessiongate/pkg/cryptox"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

// NotifyService handles service-to-service logout notifications: the
// provider tells the gateway a user logged out elsewhere, and the
// gateway purges that user's accounts from every session.
type NotifyService struct {
	Registry *Registry

	// Purger is optional. Without one, authenticated notifications are
	// acknowledged but nothing is purged.
	Purger store.SessionPurger
}

type logoutNotification struct {
	UserID string `json:"user_id"`
}

// LoggedOut processes a notification for the named provider. The
// shared secret is verified in constant time against the provider's
// configured hash before anything else happens.
func (s *NotifyService) LoggedOut(ctx context.Context, providerName, secret string, body []byte) error {
	p, err := s.Registry.Lookup(providerName)
	if err != nil {
		return err
	}

	if p.LogoutSecretHash == "" {
		return ErrUnauthorized
	}
	if err := cryptox.VerifySecret(secret, p.LogoutSecretHash); err != nil {
		return ErrUnauthorized
	}

	if s.Purger == nil {
		slogx.FromContext(ctx).Info("logout notification ignored, no purger configured",
			"provider", p.Name)
		return nil
	}

	var n logoutNotification
	if err := json.Unmarshal(body, &n); err != nil || n.UserID == "" {
		return ErrInvalidNotification
	}

	if err := s.Purger.PurgeAccounts(ctx, p.Key(), n.UserID); err != nil {
		return fmt.Errorf("purge accounts for %s: %w", p.Name, err)
	}

	slogx.FromContext(ctx).Info("purged user sessions after logout notification",
		"provider", p.Name,
		"user_id", n.UserID,
	)
	return nil
}
