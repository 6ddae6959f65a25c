package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// SessionStore keeps session records in Redis.
// Key format: session:<session_id>, expiring with the session itself.
// A companion set user_sessions:<user_id> indexes a user's live sessions so
// they can all be destroyed at once.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Save writes the session record with a TTL matching its validity window and
// registers it on the owner's index.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}

	ttl := time.Until(session.Token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session save: already expired")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(session.ID), payload, ttl)
	pipe.SAdd(ctx, s.userKey(session.UserID), session.ID)
	// The index outlives its members by a margin so a near-expiry logout
	// still finds them.
	pipe.Expire(ctx, s.userKey(session.UserID), ttl+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Find loads a session record. An absent or expired key yields
// domain.ErrSessionNotFound.
func (s *SessionStore) Find(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("session find: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("session find: %w", err)
	}
	return &session, nil
}

// Delete destroys one session and removes it from its owner's index.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	session, err := s.Find(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.userKey(session.UserID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// DeleteByUser destroys every session on the user's index, then the index
// itself.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("session delete by user: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.key(id))
	}
	pipe.Del(ctx, s.userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session delete by user: %w", err)
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return "session:" + id
}

func (s *SessionStore) userKey(userID string) string {
	return "user_sessions:" + userID
}
