// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed full-page HTML cache for published
// storefronts. Entries are namespaced per store so a publish or catalog
// change can drop every rendering of one store without touching others.
// Draft (preview) renderings are never stored here.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute

	// generationKeyPrefix holds per-store invalidation counters. It lies
	// outside pageKeyPrefix so clearing pages never resets a counter.
	generationKeyPrefix = "pagegen:"
	generationTTL       = 24 * time.Hour
)

var errStaleRender = errors.New("cache: store invalidated during render")

// PageCache manages full-page HTML caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML for a page key. Returns false on miss.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML for a page key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// Generation returns the store's invalidation counter. Read it before
// loading the data a page is rendered from and hand it to SetIfCurrent.
// Returns -1 when Valkey cannot be read, which SetIfCurrent refuses.
func (pc *PageCache) Generation(ctx context.Context, storeID uuid.UUID) int64 {
	gen, err := pc.client.Get(ctx, generationKey(storeID)).Int64()
	if err != nil && err != redis.Nil {
		slog.Warn("page cache generation read error", "store_id", storeID, "error", err)
		return -1
	}
	return gen
}

// SetIfCurrent stores rendered HTML unless the store was invalidated after
// gen was read, so a render that raced a publish never caches the old
// theme. Reports whether the page was stored.
func (pc *PageCache) SetIfCurrent(ctx context.Context, storeID uuid.UUID, gen int64, key string, html []byte) bool {
	if gen < 0 {
		return false
	}
	genKey := generationKey(storeID)
	err := pc.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return errStaleRender
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pageKeyPrefix+key, html, pc.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return true
	case errors.Is(err, errStaleRender), errors.Is(err, redis.TxFailedErr):
		slog.Debug("stale page not cached", "store_id", storeID, "key", key)
	default:
		slog.Warn("page cache set error", "key", key, "error", err)
	}
	return false
}

// InvalidateStore removes every cached page of one store and bumps its
// generation so renders still in flight are not cached.
func (pc *PageCache) InvalidateStore(ctx context.Context, storeID uuid.UUID) {
	genKey := generationKey(storeID)
	pipe := pc.client.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("page cache generation bump error", "store_id", storeID, "error", err)
	}

	deleted := pc.deleteMatching(ctx, pageKeyPrefix+storePrefix(storeID)+"*")
	slog.Debug("page cache invalidated", "store_id", storeID, "deleted", deleted)
}

// InvalidateAll removes all cached pages.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if deleted := pc.deleteMatching(ctx, pageKeyPrefix+"*"); deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
}

func (pc *PageCache) deleteMatching(ctx context.Context, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "pattern", pattern, "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			return deleted
		}
	}
}

func generationKey(storeID uuid.UUID) string {
	return generationKeyPrefix + storeID.String()
}

func storePrefix(storeID uuid.UUID) string {
	return "store:" + storeID.String() + ":"
}

// StorefrontKey returns the cache key of a store's published storefront
// page.
func StorefrontKey(storeID uuid.UUID) string {
	return storePrefix(storeID) + "home"
}
