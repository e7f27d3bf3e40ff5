// Package redis persists sessions in Redis. Sessions are JSON
// documents with an optional TTL; per-user index sets let logout
// notifications purge a user's accounts across sessions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store"
)

const keyPrefix = "sessiongate"

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore connects to Redis at addr. A zero ttl means sessions never
// expire on the Redis side.
func NewStore(addr, password string, db int, ttl time.Duration) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

func accountIndexKey(sessionKey, userID string) string {
	return fmt.Sprintf("%s:account:%s:%s", keyPrefix, sessionKey, userID)
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{}
	if err := json.Unmarshal([]byte(raw), sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}

// Save writes the session document and reconciles the per-user index
// sets against the previously stored accounts.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	prev, err := s.Get(ctx, sess.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), raw, s.ttl)

	// Remove stale index entries for accounts that changed or vanished.
	if prev != nil {
		for key, acct := range prev.Accounts {
			if acct == nil {
				continue
			}
			cur := sess.Account(key)
			if cur == nil || cur.User.ID != acct.User.ID {
				pipe.SRem(ctx, accountIndexKey(key, acct.User.ID), sess.ID)
			}
		}
	}
	for key, acct := range sess.Accounts {
		if acct == nil {
			continue
		}
		pipe.SAdd(ctx, accountIndexKey(key, acct.User.ID), sess.ID)
	}

	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	prev, err := s.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	for key, acct := range prev.Accounts {
		if acct == nil {
			continue
		}
		pipe.SRem(ctx, accountIndexKey(key, acct.User.ID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.client.Close() }

// PurgeAccounts drops the account stored under key from every session
// listed in the user's index set.
func (s *Store) PurgeAccounts(ctx context.Context, key, userID string) error {
	indexKey := accountIndexKey(key, userID)
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if acct := sess.Account(key); acct == nil || acct.User.ID != userID {
			continue
		}
		sess.DeleteAccount(key)
		if err := s.Save(ctx, sess); err != nil {
			return err
		}
	}

	return s.client.Del(ctx, indexKey).Err()
}
