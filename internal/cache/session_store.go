package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"compassbot/internal/model"
)

// SessionStore persists at most one in-progress quiz session per user.
// Get returns (nil, nil) for an absent or expired session; Set overwrites
// unconditionally and re-arms the TTL. Concurrency control is layered on
// top by the quiz service, not provided here.
type SessionStore interface {
	Get(ctx context.Context, id string) (*model.QuizSession, error)
	Set(ctx context.Context, session *model.QuizSession, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type sessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a redis-backed session store.
func NewSessionStore(client *redis.Client) SessionStore {
	return &sessionStore{client: client}
}

func (c *sessionStore) Get(ctx context.Context, id string) (*model.QuizSession, error) {
	data, err := c.client.Get(ctx, "session:"+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.QuizSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionStore) Set(ctx context.Context, session *model.QuizSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "session:"+session.ID, data, ttl).Err()
}

func (c *sessionStore) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, "session:"+id).Err()
}
