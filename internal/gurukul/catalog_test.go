package gurukul

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*CatalogCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCatalogCache(client, ttl, slog.Default()), srv
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx)
	assert.False(t, ok)

	catalog := Catalog{
		Courses:   []Course{{ID: 1, Title: "Vedanta Introduction", Published: true}},
		Materials: []StudyMaterial{{ID: 2, Title: "Bhagavad Gita", Price: 250, Stock: 10, Active: true}},
	}
	cache.Set(ctx, catalog)

	got, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, catalog.Courses[0].Title, got.Courses[0].Title)
	assert.Equal(t, catalog.Materials[0].Price, got.Materials[0].Price)
}

func TestCatalogCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, Catalog{Courses: []Course{{ID: 1}}})
	_, ok := cache.Get(ctx)
	require.True(t, ok)

	cache.Invalidate(ctx)
	_, ok = cache.Get(ctx)
	assert.False(t, ok)
}

func TestCatalogCacheTTLExpiry(t *testing.T) {
	cache, srv := newTestCache(t, time.Second)
	ctx := context.Background()

	cache.Set(ctx, Catalog{Courses: []Course{{ID: 1}}})
	srv.FastForward(2 * time.Second)

	_, ok := cache.Get(ctx)
	assert.False(t, ok)
}

func TestCatalogCacheCorruptPayloadIsAMiss(t *testing.T) {
	cache, srv := newTestCache(t, time.Minute)
	require.NoError(t, srv.Set("gurukul:catalog", "not-json"))

	_, ok := cache.Get(context.Background())
	assert.False(t, ok)
}

func TestCatalogCacheNilClientDisabled(t *testing.T) {
	cache := NewCatalogCache(nil, time.Minute, slog.Default())
	ctx := context.Background()

	cache.Set(ctx, Catalog{})
	_, ok := cache.Get(ctx)
	assert.False(t, ok)
	cache.Invalidate(ctx)
}
