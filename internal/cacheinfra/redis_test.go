package cacheinfra

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	cfg.ScanCount = 2
	b, err := NewRedisBackend(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, mr
}

func TestRedisBackend_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestRedis(t)

	require.NoError(t, b.Set(ctx, "guests:detail:1", []byte("one"), time.Minute))

	got, ok, err := b.Get(ctx, "guests:detail:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), got)

	require.NoError(t, b.Delete(ctx, "guests:detail:1"))
	_, ok, err = b.Get(ctx, "guests:detail:1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, b.Delete(ctx))
}

func TestRedisBackend_TTL(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestRedis(t)

	require.NoError(t, b.Set(ctx, "guests:stats", []byte("s"), 3*time.Minute))
	assert.Equal(t, 3*time.Minute, mr.TTL("guests:stats"))

	mr.FastForward(4 * time.Minute)
	_, ok, err := b.Get(ctx, "guests:stats")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackend_DeletePatternAcrossScanPages(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestRedis(t)

	for i := 0; i < 7; i++ {
		require.NoError(t, b.Set(ctx, fmt.Sprintf("guests:list:%d", i), []byte("x"), time.Minute))
	}
	require.NoError(t, b.Set(ctx, "guests:stats", []byte("x"), time.Minute))
	require.NoError(t, mr.Set("other:key", "x"))

	n, err := b.DeletePattern(ctx, "guests:list:*")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.ElementsMatch(t, []string{"guests:stats", "other:key"}, mr.Keys())

	n, err = b.DeletePattern(ctx, "guests:list:*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisBackend_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	b := NewRedisBackendFromClient(client, 0)
	defer b.Close()

	assert.Error(t, b.Ping(ctx))
	_, _, err := b.Get(ctx, "k")
	assert.Error(t, err)
	_, err = b.DeletePattern(ctx, "guests:*")
	assert.Error(t, err)
}

func TestRedisConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultRedisConfig().Validate())

	cfg := DefaultRedisConfig()
	cfg.MaxRetryBackoff = time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg = DefaultRedisConfig()
	cfg.Addr = ""
	assert.Error(t, cfg.Validate())
}
