package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tayo-ak/currency-exchange/internal/domain"
	"github.com/tayo-ak/currency-exchange/internal/observability"
	"go.uber.org/zap"
)

const redisKeyPrefix = "rates"

// Cache is the two-tier snapshot store: an in-process map as the fast tier
// and Redis as the durable tier. The durable tier is best-effort: every
// failure on it is logged, counted, and degraded to a cache miss or a
// memory-only write. Nothing past this package ever sees a cache error.
type Cache struct {
	redis    redis.Cmdable // nil means memory-only
	freshFor time.Duration
	staleFor time.Duration

	mu      sync.RWMutex
	entries map[string]domain.CachedSnapshot

	now func() time.Time
}

// New constructs a cache. freshFor is the freshness window applied to new
// entries; staleFor is the absolute age ceiling past which an entry is
// treated as absent for fallback purposes.
func New(rdb redis.Cmdable, freshFor, staleFor time.Duration) *Cache {
	return &Cache{
		redis:    rdb,
		freshFor: freshFor,
		staleFor: staleFor,
		entries:  make(map[string]domain.CachedSnapshot),
		now:      time.Now,
	}
}

// WithClock overrides the time source. Freshness boundaries are exact, so
// tests pin the clock instead of sleeping.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	if now != nil {
		c.now = now
	}
	return c
}

// StaleCeiling returns the absolute age ceiling for fallback use.
func (c *Cache) StaleCeiling() time.Duration {
	return c.staleFor
}

// Lookup returns the cached entry for base, trying the fast tier first and
// promoting a durable-tier hit into the fast tier. The returned tier is
// domain.TierMemory or domain.TierDurable. Promotion happens at most once
// per miss, so repeated lookups are cheap.
func (c *Cache) Lookup(ctx context.Context, base string) (domain.CachedSnapshot, string, bool) {
	key := cacheKey(base)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		observability.IncrementCacheEvent("memory_hit")
		return entry.Clone(), domain.TierMemory, true
	}

	if c.redis == nil {
		observability.IncrementCacheEvent("miss")
		return domain.CachedSnapshot{}, "", false
	}

	val, err := c.redis.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			observability.IncrementCacheEvent("durable_read_failed")
			zap.L().Warn("durable rate cache read failed", zap.String("base", key), zap.Error(err))
		} else {
			observability.IncrementCacheEvent("miss")
		}
		return domain.CachedSnapshot{}, "", false
	}

	var cached domain.CachedSnapshot
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		observability.IncrementCacheEvent("durable_parse_failed")
		zap.L().Warn("durable rate cache entry unparseable", zap.String("base", key), zap.Error(err))
		return domain.CachedSnapshot{}, "", false
	}
	if err := c.validateEntry(cached); err != nil {
		observability.IncrementCacheEvent("durable_parse_failed")
		zap.L().Warn("durable rate cache entry invalid", zap.String("base", key), zap.Error(err))
		return domain.CachedSnapshot{}, "", false
	}

	c.mu.Lock()
	c.entries[key] = cached.Clone()
	c.mu.Unlock()

	observability.IncrementCacheEvent("durable_hit")
	return cached, domain.TierDurable, true
}

// Store writes a fresh entry for base. The fast-tier write is
// unconditional; the durable-tier write is best-effort. Store never fails.
func (c *Cache) Store(ctx context.Context, base string, snapshot domain.RateSnapshot) {
	key := cacheKey(base)
	now := c.now()
	entry := domain.CachedSnapshot{
		Snapshot:  snapshot.Clone(),
		CachedAt:  now,
		ExpiresAt: now.Add(c.freshFor),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		observability.IncrementCacheEvent("durable_write_failed")
		zap.L().Warn("marshal rate cache entry", zap.String("base", key), zap.Error(err))
		return
	}
	// Past the stale ceiling the entry is unusable anyway, so let Redis
	// expire it then.
	if err := c.redis.Set(ctx, redisKey(key), payload, c.staleFor).Err(); err != nil {
		observability.IncrementCacheEvent("durable_write_failed")
		zap.L().Warn("durable rate cache write failed", zap.String("base", key), zap.Error(err))
	}
}

// IsValid reports whether a fresh entry exists for base.
func (c *Cache) IsValid(ctx context.Context, base string) bool {
	entry, _, ok := c.Lookup(ctx, base)
	return ok && entry.Fresh(c.now())
}

// IsStale reports whether an entry exists that is past its freshness window
// but still inside the stale ceiling.
func (c *Cache) IsStale(ctx context.Context, base string) bool {
	entry, _, ok := c.Lookup(ctx, base)
	return ok && entry.StaleUsable(c.now(), c.staleFor)
}

// ClearCurrency removes the entry for one base from both tiers.
func (c *Cache) ClearCurrency(ctx context.Context, base string) {
	key := cacheKey(base)

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		zap.L().Warn("durable rate cache delete failed", zap.String("base", key), zap.Error(err))
	}
}

// Clear removes every entry from both tiers.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[string]domain.CachedSnapshot)
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	for _, key := range keys {
		if err := c.redis.Del(ctx, redisKey(key)).Err(); err != nil {
			zap.L().Warn("durable rate cache delete failed", zap.String("base", key), zap.Error(err))
		}
	}
}

// validateEntry gates durable-tier reads: a corrupt or shape-violating
// entry is a miss, never an error to the caller.
func (c *Cache) validateEntry(entry domain.CachedSnapshot) error {
	if entry.CachedAt.IsZero() || entry.ExpiresAt.IsZero() {
		return fmt.Errorf("entry missing lifecycle timestamps")
	}
	// The durable tier can hold entries older than 24h only briefly before
	// Redis expiry; validate against the stale ceiling, not the fetch gate.
	return entry.Snapshot.Validate(c.now(), c.staleFor)
}

// cacheKey normalizes the base so "USD" and "usd" collide.
func cacheKey(base string) string {
	return strings.ToLower(strings.TrimSpace(base))
}

func redisKey(key string) string {
	return fmt.Sprintf("%s_%s", redisKeyPrefix, key)
}
