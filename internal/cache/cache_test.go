package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayo-ak/currency-exchange/internal/domain"
)

func testSnapshot(base string, fetchedAt time.Time) domain.RateSnapshot {
	return domain.RateSnapshot{
		Base:      base,
		FetchedAt: fetchedAt,
		Rates: map[string]decimal.Decimal{
			"EUR": decimal.RequireFromString("0.93"),
		},
	}
}

func newRedisPair(t *testing.T) (*miniredis.Miniredis, redis.Cmdable) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestStoreAndLookupMemoryTier(t *testing.T) {
	c := New(nil, 5*time.Minute, 24*time.Hour)
	ctx := context.Background()

	c.Store(ctx, "USD", testSnapshot("USD", time.Now()))

	entry, tier, ok := c.Lookup(ctx, "USD")
	require.True(t, ok)
	assert.Equal(t, domain.TierMemory, tier)
	assert.Equal(t, "USD", entry.Snapshot.Base)
}

func TestLookupKeyIsCaseInsensitive(t *testing.T) {
	c := New(nil, 5*time.Minute, 24*time.Hour)
	ctx := context.Background()

	c.Store(ctx, "USD", testSnapshot("USD", time.Now()))

	_, _, ok := c.Lookup(ctx, "usd")
	assert.True(t, ok)
	_, _, ok = c.Lookup(ctx, " Usd ")
	assert.True(t, ok)
}

func TestLookupReturnsCopies(t *testing.T) {
	c := New(nil, 5*time.Minute, 24*time.Hour)
	ctx := context.Background()

	c.Store(ctx, "USD", testSnapshot("USD", time.Now()))

	entry, _, ok := c.Lookup(ctx, "USD")
	require.True(t, ok)
	entry.Snapshot.Rates["EUR"] = decimal.RequireFromString("999")

	again, _, ok := c.Lookup(ctx, "USD")
	require.True(t, ok)
	assert.True(t, again.Snapshot.Rates["EUR"].Equal(decimal.RequireFromString("0.93")))
}

func TestDurableTierPromotion(t *testing.T) {
	_, client := newRedisPair(t)
	ctx := context.Background()

	writer := New(client, 5*time.Minute, 24*time.Hour)
	writer.Store(ctx, "USD", testSnapshot("USD", time.Now()))

	// A fresh cache instance over the same Redis sees nothing in its fast
	// tier and promotes the durable entry.
	reader := New(client, 5*time.Minute, 24*time.Hour)
	entry, tier, ok := reader.Lookup(ctx, "USD")
	require.True(t, ok)
	assert.Equal(t, domain.TierDurable, tier)
	assert.Equal(t, "USD", entry.Snapshot.Base)

	_, tier, ok = reader.Lookup(ctx, "USD")
	require.True(t, ok)
	assert.Equal(t, domain.TierMemory, tier)
}

func TestDurableTierCorruptEntryIsAMiss(t *testing.T) {
	mr, client := newRedisPair(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("rates_usd", "{not json"))

	c := New(client, 5*time.Minute, 24*time.Hour)
	_, _, ok := c.Lookup(ctx, "USD")
	assert.False(t, ok)
}

func TestDurableTierFailuresAreSwallowed(t *testing.T) {
	mr, client := newRedisPair(t)
	ctx := context.Background()
	mr.Close()

	c := New(client, 5*time.Minute, 24*time.Hour)

	// Neither the write nor the read may surface the dead durable tier.
	c.Store(ctx, "USD", testSnapshot("USD", time.Now()))

	entry, tier, ok := c.Lookup(ctx, "USD")
	require.True(t, ok, "fast tier must still serve after a durable write failure")
	assert.Equal(t, domain.TierMemory, tier)
	assert.Equal(t, "USD", entry.Snapshot.Base)

	fresh := New(client, 5*time.Minute, 24*time.Hour)
	_, _, ok = fresh.Lookup(ctx, "USD")
	assert.False(t, ok)
}

func TestFreshnessBoundaries(t *testing.T) {
	c := New(nil, 5*time.Minute, 24*time.Hour)
	ctx := context.Background()

	cachedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := cachedAt
	c.WithClock(func() time.Time { return now })

	c.Store(ctx, "USD", testSnapshot("USD", cachedAt))

	now = cachedAt.Add(4*time.Minute + 59*time.Second)
	assert.True(t, c.IsValid(ctx, "USD"))
	assert.False(t, c.IsStale(ctx, "USD"))

	now = cachedAt.Add(5*time.Minute + time.Second)
	assert.False(t, c.IsValid(ctx, "USD"))
	assert.True(t, c.IsStale(ctx, "USD"))

	now = cachedAt.Add(23*time.Hour + 59*time.Minute)
	assert.True(t, c.IsStale(ctx, "USD"))

	now = cachedAt.Add(24*time.Hour + time.Minute)
	assert.False(t, c.IsValid(ctx, "USD"))
	assert.False(t, c.IsStale(ctx, "USD"))
}

func TestStoreSupersedesWholeEntry(t *testing.T) {
	c := New(nil, 5*time.Minute, 24*time.Hour)
	ctx := context.Background()

	c.Store(ctx, "USD", testSnapshot("USD", time.Now()))

	second := testSnapshot("USD", time.Now())
	second.Rates["EUR"] = decimal.RequireFromString("0.95")
	second.Rates["GBP"] = decimal.RequireFromString("0.80")
	c.Store(ctx, "USD", second)

	entry, _, ok := c.Lookup(ctx, "USD")
	require.True(t, ok)
	assert.Len(t, entry.Snapshot.Rates, 2)
	assert.True(t, entry.Snapshot.Rates["EUR"].Equal(decimal.RequireFromString("0.95")))
}

func TestClearCurrency(t *testing.T) {
	_, client := newRedisPair(t)
	ctx := context.Background()

	c := New(client, 5*time.Minute, 24*time.Hour)
	c.Store(ctx, "USD", testSnapshot("USD", time.Now()))
	c.Store(ctx, "EUR", testSnapshot("EUR", time.Now()))

	c.ClearCurrency(ctx, "usd")

	_, _, ok := c.Lookup(ctx, "USD")
	assert.False(t, ok)
	_, _, ok = c.Lookup(ctx, "EUR")
	assert.True(t, ok)

	// Gone from the durable tier too: a fresh instance cannot promote it.
	fresh := New(client, 5*time.Minute, 24*time.Hour)
	_, _, ok = fresh.Lookup(ctx, "USD")
	assert.False(t, ok)
}

func TestClearRemovesEverything(t *testing.T) {
	_, client := newRedisPair(t)
	ctx := context.Background()

	c := New(client, 5*time.Minute, 24*time.Hour)
	c.Store(ctx, "USD", testSnapshot("USD", time.Now()))
	c.Store(ctx, "EUR", testSnapshot("EUR", time.Now()))

	c.Clear(ctx)

	_, _, ok := c.Lookup(ctx, "USD")
	assert.False(t, ok)
	fresh := New(client, 5*time.Minute, 24*time.Hour)
	_, _, ok = fresh.Lookup(ctx, "EUR")
	assert.False(t, ok)
}

func TestDurableEntryPastCeilingRejected(t *testing.T) {
	_, client := newRedisPair(t)
	ctx := context.Background()

	cachedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	writerNow := cachedAt
	writer := New(client, 5*time.Minute, 24*time.Hour).WithClock(func() time.Time { return writerNow })
	writer.Store(ctx, "USD", testSnapshot("USD", cachedAt))

	// A reader 25 hours later must treat the durable entry as absent.
	reader := New(client, 5*time.Minute, 24*time.Hour).WithClock(func() time.Time {
		return cachedAt.Add(25 * time.Hour)
	})
	_, _, ok := reader.Lookup(ctx, "USD")
	assert.False(t, ok)
}
