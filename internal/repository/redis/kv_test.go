package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoRedis skips the test unless CITYPULSE_TEST_REDIS_ADDR points at a disposable Redis.
func skipIfNoRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("CITYPULSE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis tests: CITYPULSE_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestKV_RoundTrip(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()
	kv := New(client)

	key := "citypulse:test:" + randomHex(4)
	t.Cleanup(func() { _ = kv.Delete(ctx, key) })

	_, ok, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, key, `{"a":1}`))

	v, ok, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, v)

	require.NoError(t, kv.Delete(ctx, key))
	_, ok, err = kv.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlidingWindowLimiter_DeniesOverLimit(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()

	l := NewSlidingWindowLimiter(client, "citypulse:test:rl:"+randomHex(4), 2, time.Second)

	for i := 0; i < 2; i++ {
		ok, _, _, err := l.Allow(ctx, "api")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, current, retry, err := l.Allow(ctx, "api")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(2), current)
	assert.Greater(t, retry, time.Duration(0))

	waitCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	require.NoError(t, l.Scoped("api").Wait(waitCtx))
}
