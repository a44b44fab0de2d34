package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"form-shield/internal/metrics"
	"form-shield/internal/submission"
	"form-shield/pkg/logger"
)

// Cache is the best-effort verdict cache. Store errors are logged and read
// as misses; callers never see them from Get or Set.
type Cache struct {
	store   Store
	enabled atomic.Bool
}

// New returns an enabled cache over store.
func New(store Store) *Cache {
	c := &Cache{store: store}
	c.enabled.Store(true)
	return c
}

// Key is the cache key for sub. Field order does not affect it.
func Key(sub submission.Submission) string { return submission.ContentHash(sub) }

func (c *Cache) SetEnabled(on bool) { c.enabled.Store(on) }
func (c *Cache) Enabled() bool { return c.enabled.Load() }

// Get decodes the entry for key into dst. It misses while disabled.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		metrics.CacheLookups.WithLabelValues("disabled").Inc()
		return false
	}
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.From(ctx).Warn("cache read failed", "err", err)
		return false
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.From(ctx).Warn("cache entry undecodable", "key", key, "err", err)
		return false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

// Set stores v under key. It is a no-op while disabled.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		logger.From(ctx).Warn("cache encode failed", "err", err)
		return
	}
	if err := c.store.Set(ctx, key, b, ttl); err != nil {
		logger.From(ctx).Warn("cache write failed", "err", err)
	}
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

func (c *Cache) Flush(ctx context.Context) (int, error) { return c.store.Flush(ctx) }

func (c *Cache) Stats(ctx context.Context) (Stats, error) { return c.store.Stats(ctx) }

func (c *Cache) Cleanup(ctx context.Context) (int, error) { return c.store.Cleanup(ctx) }
