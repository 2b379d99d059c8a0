package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), []time.Duration{time.Millisecond}, alwaysRetryable, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsSchedule(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry(context.Background(), []time.Duration{time.Millisecond, time.Millisecond}, alwaysRetryable, func(ctx context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls, "one initial attempt plus one retry per delay")
}

func TestRetryRecoversMidSchedule(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), []time.Duration{time.Millisecond, time.Millisecond}, alwaysRetryable, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), []time.Duration{time.Millisecond, time.Millisecond}, neverRetryable, func(ctx context.Context) error {
		calls++
		return errors.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, []time.Duration{time.Hour}, alwaysRetryable, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "the hour-long delay must be abandoned on cancel")
}

func alwaysRetryable(error) bool { return true }
func neverRetryable(error) bool  { return false }
