package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/todobot/core/internal/dialog"
)

// SessionStore keeps dialog sessions as JSON values that expire after ttl of inactivity
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a new session store
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, chatID, userID int64) (*dialog.Session, error) {
	data, err := s.client.Get(ctx, dialog.SessionKey(chatID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session dialog.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *dialog.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, session.Key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}

	return nil
}
