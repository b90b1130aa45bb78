package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots under uno:room:<code>:state with a TTL, so
// rooms abandoned without a clean teardown expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

// Key returns the Redis key for a room snapshot.
func Key(roomID string) string {
	return "uno:room:" + roomID + ":state"
}

func (s *RedisStore) Save(ctx context.Context, roomID string, state json.RawMessage) error {
	return s.client.Set(ctx, Key(roomID), []byte(state), s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, roomID string) (json.RawMessage, error) {
	b, err := s.client.Get(ctx, Key(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, Key(roomID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
