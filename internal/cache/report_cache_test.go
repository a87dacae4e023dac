package cache

import (
	"context"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/amber/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Month string  `json:"month"`
	Net   int     `json:"net"`
	Pct   float64 `json:"pct"`
}

func TestMemoryReportCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryReportCache(time.Minute)

	var got payload
	hit, err := c.Get(ctx, "report|all", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := payload{Month: "2025-05", Net: 7, Pct: 75.5}
	require.NoError(t, c.Set(ctx, "report|all", want))

	hit, err = c.Get(ctx, " REPORT|all ", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want, got)

	require.NoError(t, c.Invalidate(ctx))
	hit, err = c.Get(ctx, "report|all", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryReportCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryReportCache(time.Minute).(*memoryReportCache)
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", payload{Net: 1}))
	now = now.Add(2 * time.Minute)

	var got payload
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewReportCacheSelection(t *testing.T) {
	assert.IsType(t, NopReportCache{}, NewReportCache(nil, config.Config{}))
	assert.IsType(t, &memoryReportCache{}, NewReportCache(nil, config.Config{ReportCacheEnabled: true}))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	assert.IsType(t, &redisReportCache{}, NewReportCache(client, config.Config{ReportCacheEnabled: true}))
}

func TestSnappyCodec(t *testing.T) {
	data, err := encode(payload{Month: "2025-06", Net: 3})
	require.NoError(t, err)

	var got payload
	require.NoError(t, decode(data, &got))
	assert.Equal(t, payload{Month: "2025-06", Net: 3}, got)

	assert.Error(t, decode([]byte("not snappy"), &got))
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("AMBER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AMBER_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.FlushDB(context.Background()).Err())
	return client
}

func TestRedisReportCache(t *testing.T) {
	ctx := context.Background()
	c := NewRedisReportCache(testRedis(t), time.Minute)

	require.NoError(t, c.Set(ctx, "report|all", payload{Net: 7}))
	var got payload
	hit, err := c.Get(ctx, "report|all", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 7, got.Net)

	require.NoError(t, c.Invalidate(ctx))
	hit, err = c.Get(ctx, "report|all", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(testRedis(t))

	token, ok, err := locker.TryLock(ctx, "amber:test:lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "amber:test:lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "amber:test:lock", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, locker.Release(ctx, "amber:test:lock", token))
	_, ok, err = locker.TryLock(ctx, "amber:test:lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNilLocker(t *testing.T) {
	var locker *Locker
	_, _, err := locker.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "t"))
	assert.Nil(t, NewLocker(nil))
}
