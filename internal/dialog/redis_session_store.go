package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "carservice:session:"

// RedisSessionStore keeps each session as a JSON value whose TTL is refreshed on every
// save, so idle sessions expire on their own.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedisSessionStore creates a Redis-backed store. ttl defaults to DefaultIdleTimeout.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if rdb == nil {
		panic("dialog: redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultIdleTimeout
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *RedisSessionStore) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dialog: load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("dialog: decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return ErrEmptySessionID
	}
	stored := *s
	stored.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("dialog: encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("dialog: save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}
	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("dialog: delete session: %w", err)
	}
	return nil
}
