package gateway

import (
	"context"
	"time"
)

// Retry runs fn, then retries it once per entry in delays while retryable
// reports the failure as transient. The schedule is fixed, not randomized:
// len(delays) bounds the number of retries and delays[i] is the wait before
// retry i+1. The last error is returned unchanged.
func Retry(ctx context.Context, delays []time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= len(delays) || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delays[attempt]):
		}
	}
}
