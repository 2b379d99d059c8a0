package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RateSource tags where a rate snapshot came from so callers can decide
// whether to surface a degraded-mode advisory.
type RateSource string

const (
	SourceCache   RateSource = "cache"
	SourceNetwork RateSource = "network"
	SourceStale   RateSource = "stale"
)

// Cache tier names, reported alongside lookups for observability.
const (
	TierMemory  = "memory"
	TierDurable = "durable"
)

// RateSnapshot is a base-relative rate table as fetched from the provider.
// Every rate is units of the quoted currency per 1 unit of Base.
type RateSnapshot struct {
	Base      string                     `json:"base"`
	FetchedAt time.Time                  `json:"fetched_at"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// Validate checks the snapshot invariants: base present, fetched within the
// given ceiling of now, and every rate positive. Used both when accepting a
// provider response and when reading back a durable cache entry.
func (s RateSnapshot) Validate(now time.Time, maxAge time.Duration) error {
	if s.Base == "" {
		return fmt.Errorf("snapshot missing base currency")
	}
	if s.FetchedAt.IsZero() {
		return fmt.Errorf("snapshot missing timestamp")
	}
	if s.FetchedAt.Before(now.Add(-maxAge)) {
		return fmt.Errorf("snapshot timestamp %s older than %s", s.FetchedAt.Format(time.RFC3339), maxAge)
	}
	if len(s.Rates) == 0 {
		return fmt.Errorf("snapshot has no rates")
	}
	for code, rate := range s.Rates {
		if rate.Sign() <= 0 {
			return fmt.Errorf("snapshot rate for %s is not positive", code)
		}
	}
	return nil
}

// Clone returns a deep copy. The cache hands copies to callers so nothing
// outside it can mutate a stored snapshot.
func (s RateSnapshot) Clone() RateSnapshot {
	rates := make(map[string]decimal.Decimal, len(s.Rates))
	for code, rate := range s.Rates {
		rates[code] = rate
	}
	return RateSnapshot{Base: s.Base, FetchedAt: s.FetchedAt, Rates: rates}
}

// CachedSnapshot is a snapshot plus its cache lifecycle timestamps.
// Entries are created whole on a successful fetch and superseded whole by
// the next one; they are never partially updated.
type CachedSnapshot struct {
	Snapshot  RateSnapshot `json:"snapshot"`
	CachedAt  time.Time    `json:"cached_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Fresh reports whether the entry is inside its freshness window.
func (c CachedSnapshot) Fresh(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// StaleUsable reports whether the entry is past its freshness window but
// still inside the absolute age ceiling, i.e. usable as a degraded fallback.
func (c CachedSnapshot) StaleUsable(now time.Time, ceiling time.Duration) bool {
	if c.Fresh(now) {
		return false
	}
	return now.Sub(c.CachedAt) < ceiling
}

// Clone returns a deep copy of the entry.
func (c CachedSnapshot) Clone() CachedSnapshot {
	return CachedSnapshot{
		Snapshot:  c.Snapshot.Clone(),
		CachedAt:  c.CachedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

// ConversionResult is the immutable value produced by one conversion call.
type ConversionResult struct {
	ConvertedAmount   decimal.Decimal `json:"converted_amount"`
	RateApplied       decimal.Decimal `json:"rate_applied"`
	SnapshotTimestamp time.Time       `json:"snapshot_timestamp"`
	Formatted         string          `json:"formatted"`
}
