package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedisStore(t, time.Hour)
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Load(ctx, "ABC123")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "ABC123", json.RawMessage(`{"turnId":1}`)))
			require.NoError(t, s.Save(ctx, "ABC123", json.RawMessage(`{"turnId":2}`)))
			got, err := s.Load(ctx, "ABC123")
			require.NoError(t, err)
			assert.JSONEq(t, `{"turnId":2}`, string(got))

			require.NoError(t, s.Delete(ctx, "ABC123"))
			_, err = s.Load(ctx, "ABC123")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.NoError(t, s.Delete(ctx, "ABC123"), "deleting a missing room is not an error")
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	state := json.RawMessage(`{"a":1}`)
	require.NoError(t, s.Save(ctx, "R", state))
	state[2] = 'b'

	got, err := s.Load(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestRedisStoreKeyAndTTL(t *testing.T) {
	s, mr := newRedisStore(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "XYZ789", json.RawMessage(`{}`)))
	assert.True(t, mr.Exists("uno:room:XYZ789:state"))
	assert.Equal(t, 10*time.Minute, mr.TTL(Key("XYZ789")))

	mr.FastForward(11 * time.Minute)
	_, err := s.Load(ctx, "XYZ789")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := DialRedis(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(context.Background(), "R", json.RawMessage(`1`)))

	_, err = DialRedis(context.Background(), "not a url", time.Minute)
	assert.Error(t, err)
}
