package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tayo-ak/currency-exchange/internal/cache"
	"github.com/tayo-ak/currency-exchange/internal/domain"
	"github.com/tayo-ak/currency-exchange/internal/gateway"
	"github.com/tayo-ak/currency-exchange/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RatesResult pairs a snapshot with its provenance so callers can surface
// a degraded-mode advisory when rates came from the stale fallback.
type RatesResult struct {
	Snapshot domain.RateSnapshot
	Source   domain.RateSource
}

// RatesService is the fallback decision procedure over cache and provider:
// fresh cache, else network, else stale cache, else the fetch error.
// Concurrent requests for the same base are coalesced into one flight.
type RatesService struct {
	cache    *cache.Cache
	provider gateway.RateProvider
	group    singleflight.Group
	now      func() time.Time
}

func NewRatesService(c *cache.Cache, provider gateway.RateProvider) *RatesService {
	return &RatesService{cache: c, provider: provider, now: time.Now}
}

// WithClock overrides the time source used for freshness decisions.
func (s *RatesService) WithClock(now func() time.Time) *RatesService {
	if now != nil {
		s.now = now
	}
	return s
}

// GetRates returns a snapshot for base with its source tag. The ladder is
// strictly sequential: the fetch never starts while a fresh cache entry
// exists, and the stale fallback is only consulted after the fetch failed.
func (s *RatesService) GetRates(ctx context.Context, base string) (RatesResult, error) {
	base = domain.NormalizeCode(base)

	ch := s.group.DoChan(strings.ToLower(base), func() (interface{}, error) {
		res, err := s.getRates(ctx, base)
		if err != nil {
			return nil, err
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		// The shared flight keeps running for other waiters; this caller
		// just stops waiting.
		return RatesResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return RatesResult{}, res.Err
		}
		return res.Val.(RatesResult), nil
	}
}

func (s *RatesService) getRates(ctx context.Context, base string) (RatesResult, error) {
	// One lookup per invocation: freshness and staleness are both derived
	// from the same entry, so a durable-tier hit is promoted at most once.
	entry, tier, ok := s.cache.Lookup(ctx, base)

	if ok && entry.Fresh(s.now()) {
		observability.IncrementRateSource(string(domain.SourceCache))
		zap.L().Debug("rates served from cache",
			zap.String("base", base),
			zap.String("tier", tier),
		)
		return RatesResult{Snapshot: entry.Snapshot, Source: domain.SourceCache}, nil
	}

	snapshot, fetchErr := s.provider.FetchRates(ctx, base)
	if fetchErr == nil {
		s.cache.Store(ctx, base, snapshot)
		observability.IncrementRateSource(string(domain.SourceNetwork))
		return RatesResult{Snapshot: snapshot, Source: domain.SourceNetwork}, nil
	}

	if ok && entry.StaleUsable(s.now(), s.cache.StaleCeiling()) {
		observability.IncrementRateSource(string(domain.SourceStale))
		zap.L().Warn("serving stale rates after fetch failure",
			zap.String("base", base),
			zap.Time("cached_at", entry.CachedAt),
			zap.Error(fetchErr),
		)
		return RatesResult{Snapshot: entry.Snapshot, Source: domain.SourceStale}, nil
	}

	return RatesResult{}, fetchErr
}

// RefreshRates forces a fetch for base, bypassing the fresh-cache check.
// A manual refresh is an explicit fresh-data request: on failure the error
// propagates with no stale fallback.
func (s *RatesService) RefreshRates(ctx context.Context, base string) (domain.RateSnapshot, error) {
	base = domain.NormalizeCode(base)

	snapshot, err := s.provider.FetchRates(ctx, base)
	if err != nil {
		return domain.RateSnapshot{}, err
	}
	s.cache.Store(ctx, base, snapshot)
	observability.IncrementRateSource(string(domain.SourceNetwork))
	return snapshot, nil
}

// PreloadRates warms the cache for several bases concurrently. Failures are
// logged per base and never cancel the sibling requests; the call is pure
// best-effort warm-up with no result consumed for correctness.
func (s *RatesService) PreloadRates(ctx context.Context, bases []string) {
	var wg sync.WaitGroup
	for _, base := range bases {
		wg.Add(1)
		go func(base string) {
			defer wg.Done()
			if _, err := s.GetRates(ctx, base); err != nil {
				zap.L().Warn("preload failed", zap.String("base", base), zap.Error(err))
			}
		}(base)
	}
	wg.Wait()
}
