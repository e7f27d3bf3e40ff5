// Package memory provides an in-process session store for development
// and tests. Records do not survive a restart.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(sess)
}

func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	copied, err := clone(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copied
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// PurgeAccounts drops the account stored under sessionKey from every
// session where it belongs to userID.
func (s *Store) PurgeAccounts(ctx context.Context, sessionKey, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		acct := sess.Account(sessionKey)
		if acct != nil && acct.User.ID == userID {
			sess.DeleteAccount(sessionKey)
		}
	}
	return nil
}

// clone deep-copies a session so callers never share maps with the
// stored record.
func clone(sess *domain.Session) (*domain.Session, error) {
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	out := &domain.Session{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}
