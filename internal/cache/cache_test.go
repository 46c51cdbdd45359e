package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKVGetSet(t *testing.T) {
	mr, kv := setupTestRedis(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "lease:stats")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "lease:stats", "42", time.Minute))
	v, err := kv.Get(ctx, "lease:stats")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "lease:stats")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKVDeletePattern(t *testing.T) {
	_, kv := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "lease:stats:all", "1", 0))
	require.NoError(t, kv.Set(ctx, "lease:stats:landlord:7", "2", 0))
	require.NoError(t, kv.Set(ctx, "other", "3", 0))

	require.NoError(t, kv.Delete(ctx, "lease:stats:*"))

	_, err := kv.Get(ctx, "lease:stats:all")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = kv.Get(ctx, "lease:stats:landlord:7")
	assert.ErrorIs(t, err, ErrMiss)
	v, err := kv.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestJSONHelpers(t *testing.T) {
	_, kv := setupTestRedis(t)
	ctx := context.Background()

	in := map[string]int64{"total": 3}
	require.NoError(t, SetJSON(ctx, kv, "k", in, time.Minute))

	var out map[string]int64
	require.NoError(t, GetJSON(ctx, kv, "k", &out))
	assert.Equal(t, in, out)

	assert.ErrorIs(t, GetJSON(ctx, Nop{}, "k", &out), ErrMiss)
}
