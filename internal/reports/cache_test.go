package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestCacheBumpAdvancesVersionOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "outstanding")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "outstanding")
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), ver)
	require.Equal(t, []string{cacheVersionKey}, mr.Keys())
}

func TestNilCacheBumpIsNoop(t *testing.T) {
	var cache *Cache
	require.NoError(t, cache.Bump(context.Background()))
}
