package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	fetchOutcomeCounter   *prometheus.CounterVec
	fetchAttemptHistogram prometheus.Histogram
	cacheEventCounter     *prometheus.CounterVec
	rateSourceCounter     *prometheus.CounterVec
	conversionCounter     *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		fetchOutcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_fetch_total",
			Help: "Rate provider fetch outcomes by error kind (or success)",
		}, []string{"outcome"})

		fetchAttemptHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rate_fetch_attempts",
			Help:    "Attempts used per fetch, including retries",
			Buckets: []float64{1, 2, 3},
		})

		cacheEventCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_cache_events_total",
			Help: "Rate cache tier events (hits, misses, swallowed failures)",
		}, []string{"event"})

		rateSourceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_lookups_total",
			Help: "Rate lookups served, by snapshot source",
		}, []string{"source"})

		conversionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Conversion outcomes",
		}, []string{"result"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			fetchOutcomeCounter,
			fetchAttemptHistogram,
			cacheEventCounter,
			rateSourceCounter,
			conversionCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementFetchOutcome(outcome string) {
	if fetchOutcomeCounter == nil {
		return
	}
	fetchOutcomeCounter.WithLabelValues(outcome).Inc()
}

func ObserveFetchAttempts(attempts int) {
	if fetchAttemptHistogram == nil {
		return
	}
	fetchAttemptHistogram.Observe(float64(attempts))
}

func IncrementCacheEvent(event string) {
	if cacheEventCounter == nil {
		return
	}
	cacheEventCounter.WithLabelValues(event).Inc()
}

func IncrementRateSource(source string) {
	if rateSourceCounter == nil {
		return
	}
	rateSourceCounter.WithLabelValues(source).Inc()
}

func IncrementConversion(result string) {
	if conversionCounter == nil {
		return
	}
	conversionCounter.WithLabelValues(result).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
