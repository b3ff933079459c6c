package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis 建立一個記憶體內的 Redis 供測試使用
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "")
	ctx := context.Background()

	_, found, err := s.Get(ctx, "device-1:visitorId")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "device-1:visitorId", `{"id":"abc123","registered":false}`))

	raw, err := mr.Get(DefaultPrefix + "device-1:visitorId")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"abc123","registered":false}`, raw)
	assert.Equal(t, 0, int(mr.TTL(DefaultPrefix+"device-1:visitorId")), "identity slot must not expire")

	value, found, err := s.Get(ctx, "device-1:visitorId")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":"abc123","registered":false}`, value)

	require.NoError(t, s.Delete(ctx, "device-1:visitorId"))
	_, found, err = s.Get(ctx, "device-1:visitorId")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "test:")
	mr.Close()

	_, _, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(context.Background(), "k", "v"))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)
}
