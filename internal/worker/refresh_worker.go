package worker

import (
	"context"
	"sync"
	"time"

	"github.com/tayo-ak/currency-exchange/internal/observability"
	"github.com/tayo-ak/currency-exchange/internal/service"
	"go.uber.org/zap"
)

// RefreshWorker periodically re-invokes the rate orchestrator for a fixed
// set of base currencies so their cache entries stay inside the freshness
// window. It is scheduling policy layered above the orchestrator: the
// fallback ladder itself is untouched.
type RefreshWorker struct {
	svc      *service.RatesService
	bases    []string
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRefreshWorker constructs a worker with a default 5 minute interval.
func NewRefreshWorker(svc *service.RatesService, bases []string) *RefreshWorker {
	return &RefreshWorker{
		svc:      svc,
		bases:    bases,
		interval: 5 * time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *RefreshWorker) WithInterval(interval time.Duration) *RefreshWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and refreshes rates at the configured interval.
func (w *RefreshWorker) Start(ctx context.Context) {
	if len(w.bases) == 0 {
		zap.L().Info("refresh worker idle, no bases configured")
		return
	}

	zap.L().Info("refresh worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("refresh worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("refresh worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *RefreshWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *RefreshWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *RefreshWorker) runOnce(ctx context.Context) {
	failed := false
	for _, base := range w.bases {
		if _, err := w.svc.GetRates(ctx, base); err != nil {
			failed = true
			zap.L().Warn("scheduled refresh failed", zap.String("base", base), zap.Error(err))
		}
	}
	if failed {
		observability.IncrementWorkerRun("refresh", "failed")
		return
	}
	observability.IncrementWorkerRun("refresh", "success")
}
