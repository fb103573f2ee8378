package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/cache"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/redis"
)

func TestRedisIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, redis.Config{URL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	type result struct {
		ID   int
		Name string
	}
	c := cache.NewRedis[[]result](client, nil, cache.WithPrefix("test:"+t.Name()), cache.WithDefaultTTL(time.Minute))

	_, err = c.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrNotFound)

	want := []result{{ID: 1, Name: "a"}}
	require.NoError(t, c.Set(ctx, "k", want, 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrNotFound)
}
