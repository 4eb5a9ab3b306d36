package database

import (
	"context"
	"testing"
	"time"

	"disaster-response-go/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoding(t *testing.T) {
	labels := []uint8{0, 1, 1, 0, 1}
	s := encodeLabels(labels)
	assert.Equal(t, "01101", s)

	back, err := decodeLabels(s)
	require.NoError(t, err)
	assert.Equal(t, labels, back)

	_, err = decodeLabels("012")
	assert.Error(t, err)

	empty, err := decodeLabels("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedis(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func TestPredictionCacheGetSet(t *testing.T) {
	rdb, mr := newTestRedis(t)
	cache := NewPredictionCache(rdb, time.Minute)
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, "dr:predict:m1:direct:abc")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "dr:predict:m1:direct:abc", []uint8{1, 0, 1}))
	stored, err := mr.Get("dr:predict:m1:direct:abc")
	require.NoError(t, err)
	assert.Equal(t, "101", stored)
	assert.Equal(t, time.Minute, mr.TTL("dr:predict:m1:direct:abc"))

	labels, hit, err := cache.Get(ctx, "dr:predict:m1:direct:abc")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []uint8{1, 0, 1}, labels)

	mr.FastForward(2 * time.Minute)
	_, hit, err = cache.Get(ctx, "dr:predict:m1:direct:abc")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPredictionCacheCorruptValueIsMiss(t *testing.T) {
	rdb, mr := newTestRedis(t)
	cache := NewPredictionCache(rdb, 0)

	require.NoError(t, mr.Set("dr:predict:m1:news:x", "1x0"))
	_, hit, err := cache.Get(context.Background(), "dr:predict:m1:news:x")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPredictionCacheConnectionError(t *testing.T) {
	rdb, mr := newTestRedis(t)
	cache := NewPredictionCache(rdb, 0)
	mr.Close()

	_, hit, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestAttemptCounter(t *testing.T) {
	rdb, mr := newTestRedis(t)
	counter := NewAttemptCounter(rdb, time.Hour)
	ctx := context.Background()

	n, err := counter.Incr(ctx, "kafka:attempts:t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = counter.Incr(ctx, "kafka:attempts:t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, time.Hour, mr.TTL("kafka:attempts:t-1"))

	require.NoError(t, counter.Reset(ctx, "kafka:attempts:t-1"))
	assert.False(t, mr.Exists("kafka:attempts:t-1"))

	n, err = counter.Incr(ctx, "kafka:attempts:t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
