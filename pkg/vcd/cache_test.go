package vcd_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

func TestMemoryCacheSetAndGet(t *testing.T) {
	t.Parallel()

	cache := vcd.NewMemoryCache(10)
	ctx := context.Background()

	entry := &vcd.CacheEntry{
		Data:      []byte("org-id-1"),
		ExpiresAt: time.Now().Add(time.Minute),
	}

	require.NoError(t, cache.Set(ctx, "org:acme", entry))

	got, err := cache.Get(ctx, "org:acme")
	require.NoError(t, err)
	assert.Equal(t, []byte("org-id-1"), got.Data)
	assert.True(t, cache.Has(ctx, "org:acme"))
}

func TestMemoryCacheGetMissingKey(t *testing.T) {
	t.Parallel()

	cache := vcd.NewMemoryCache(10)

	_, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, vcd.ErrCacheKeyNotFound)
}

func TestMemoryCacheExpiredEntry(t *testing.T) {
	t.Parallel()

	cache := vcd.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stale", &vcd.CacheEntry{
		Data:      []byte("old"),
		ExpiresAt: time.Now().Add(-time.Second),
	}))

	_, err := cache.Get(ctx, "stale")
	assert.ErrorIs(t, err, vcd.ErrCacheEntryExpired)
	assert.False(t, cache.Has(ctx, "stale"))
}

func TestMemoryCacheEvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	cache := vcd.NewMemoryCache(2)
	ctx := context.Background()

	now := time.Now()

	require.NoError(t, cache.Set(ctx, "oldest", &vcd.CacheEntry{Data: []byte("a"), ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, cache.Set(ctx, "newer", &vcd.CacheEntry{Data: []byte("b"), ExpiresAt: now.Add(2 * time.Minute)}))
	require.NoError(t, cache.Set(ctx, "newest", &vcd.CacheEntry{Data: []byte("c"), ExpiresAt: now.Add(3 * time.Minute)}))

	_, err := cache.Get(ctx, "oldest")
	assert.ErrorIs(t, err, vcd.ErrCacheKeyNotFound)

	assert.True(t, cache.Has(ctx, "newer"))
	assert.True(t, cache.Has(ctx, "newest"))
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	t.Parallel()

	cache := vcd.NewMemoryCache(10)
	ctx := context.Background()

	for i := range 3 {
		key := fmt.Sprintf("key-%d", i)
		require.NoError(t, cache.Set(ctx, key, &vcd.CacheEntry{Data: []byte("v"), ExpiresAt: time.Now().Add(time.Minute)}))
	}

	require.NoError(t, cache.Delete(ctx, "key-0"))
	assert.False(t, cache.Has(ctx, "key-0"))
	assert.True(t, cache.Has(ctx, "key-1"))

	require.NoError(t, cache.Clear(ctx))
	assert.False(t, cache.Has(ctx, "key-1"))
	assert.False(t, cache.Has(ctx, "key-2"))
}

func TestMemoryCacheCleanupDropsExpiredEntries(t *testing.T) {
	t.Parallel()

	cache := vcd.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "live", &vcd.CacheEntry{Data: []byte("v"), ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, cache.Set(ctx, "dead", &vcd.CacheEntry{Data: []byte("v"), ExpiresAt: time.Now().Add(-time.Minute)}))

	cache.Cleanup()

	assert.True(t, cache.Has(ctx, "live"))
	assert.False(t, cache.Has(ctx, "dead"))
}

func TestNoOpCacheAlwaysMisses(t *testing.T) {
	t.Parallel()

	cache := vcd.NewNoOpCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", &vcd.CacheEntry{Data: []byte("v")}))

	_, err := cache.Get(ctx, "key")
	assert.ErrorIs(t, err, vcd.ErrCacheDisabled)
	assert.False(t, cache.Has(ctx, "key"))
}

func TestNewCacheFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()

		cache, err := vcd.NewCacheFromConfig(&vcd.CacheConfig{
			Type:   vcd.CacheTypeMemory,
			Memory: &vcd.MemoryCacheConfig{MaxSize: 5},
		})
		require.NoError(t, err)
		assert.IsType(t, &vcd.MemoryCache{}, cache)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		cache, err := vcd.NewCacheFromConfig(&vcd.CacheConfig{Type: vcd.CacheTypeNone})
		require.NoError(t, err)
		assert.IsType(t, &vcd.NoOpCache{}, cache)
	})

	t.Run("nats without config", func(t *testing.T) {
		t.Parallel()

		_, err := vcd.NewCacheFromConfig(&vcd.CacheConfig{Type: vcd.CacheTypeNATS})
		assert.ErrorIs(t, err, vcd.ErrNATSConfigRequired)
	})

	t.Run("unsupported type", func(t *testing.T) {
		t.Parallel()

		_, err := vcd.NewCacheFromConfig(&vcd.CacheConfig{Type: vcd.CacheType("redis")})
		assert.ErrorIs(t, err, vcd.ErrUnsupportedCacheType)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cache, err := vcd.NewCacheFromConfig(vcd.DefaultCacheConfig())
		require.NoError(t, err)
		assert.IsType(t, &vcd.MemoryCache{}, cache)
	})
}

func TestLookupCacheKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "org:acme", vcd.OrgCacheKey("Acme"))
	assert.Equal(t, "vdc:acme:prod", vcd.VDCCacheKey("ACME", "Prod"))
	assert.Equal(t, "catalog:acme:main", vcd.CatalogCacheKey("Acme", "MAIN"))

	// Same entity name in different orgs must key separately.
	assert.NotEqual(t, vcd.VDCCacheKey("acme", "prod"), vcd.VDCCacheKey("globex", "prod"))
}

func TestCacheBuilder(t *testing.T) {
	t.Parallel()

	cache, err := vcd.NewCacheBuilder().
		WithType(vcd.CacheTypeMemory).
		WithMemoryConfig(5).
		WithOptions(&vcd.CacheOptions{TTL: time.Minute}).
		Build()
	require.NoError(t, err)
	assert.IsType(t, &vcd.MemoryCache{}, cache)
}
