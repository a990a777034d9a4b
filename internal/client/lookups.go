package client

import (
	"context"
	"time"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// lookupCache memoizes name→ID resolutions behind a vcd.Cache backend so
// repeated by-name operations skip the extra document fetches.
type lookupCache struct {
	cache vcd.Cache
	ttl   time.Duration
}

func newLookupCache(cache vcd.Cache, ttl time.Duration) *lookupCache {
	return &lookupCache{cache: cache, ttl: ttl}
}

// GetID returns a cached ID for the key, or resolves and stores it.
func (l *lookupCache) GetID(ctx context.Context, key string, resolve func(context.Context) (string, error)) (string, error) {
	if entry, err := l.cache.Get(ctx, key); err == nil {
		return string(entry.Data), nil
	}

	id, err := resolve(ctx)
	if err != nil {
		return "", err
	}

	_ = l.cache.Set(ctx, key, &vcd.CacheEntry{
		Data:      []byte(id),
		ExpiresAt: time.Now().Add(l.ttl),
	})

	return id, nil
}
