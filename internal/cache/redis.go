package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore keeps cache records in Redis. Redis expires the key itself and the
// envelope carries the same expiry so reads never depend on Redis eviction timing.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed cache. Keys are namespaced with prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock replaces the time source and returns the store
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

// Ping checks the connection to the Redis server
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get returns the value for key. Redis errors are logged and reported as a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Redis cache read failed, treating as miss")
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Discarding malformed cache record")
		return nil, false
	}

	if expired(time.UnixMilli(env.ExpiresAt), s.now()) {
		return nil, false
	}
	return env.Value, true
}

// Set stores value under key with a Redis-side expiry of ttl
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	data, err := json.Marshal(envelope{Value: value, ExpiresAt: s.now().Add(ttl).UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to encode cache record: %w", err)
	}

	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
