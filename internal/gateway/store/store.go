package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the session persistence interface. Concrete drivers
// (memory, sqlite, redis) implement it. Sessions are whole-document
// records: Save replaces the full session, last write wins.
type Store interface {
	// Get returns the session by its ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Save writes the complete session record, creating or replacing it.
	Save(ctx context.Context, s *domain.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// SessionPurger removes a user's account from every session that holds
// it, under the given session key. Drivers that can enumerate sessions
// by user implement it; logout notifications are a no-op otherwise.
type SessionPurger interface {
	PurgeAccounts(ctx context.Context, sessionKey, userID string) error
}
