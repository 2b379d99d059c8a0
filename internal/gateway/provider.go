package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tayo-ak/currency-exchange/internal/domain"
	"github.com/tayo-ak/currency-exchange/internal/observability"
	"go.uber.org/zap"
)

// RateProvider fetches a base-relative rate snapshot from an external source.
type RateProvider interface {
	FetchRates(ctx context.Context, base string) (domain.RateSnapshot, error)
}

// responseMaxAge is how old a provider timestamp may be at receipt.
const responseMaxAge = 24 * time.Hour

// futureSkew tolerates small clock drift between us and the provider.
const futureSkew = 5 * time.Minute

// HTTPProvider is the production rate provider client. Each attempt runs
// inside its own timeout; transient failures are retried on a fixed
// backoff schedule.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
	backoff []time.Duration
	now     func() time.Time
}

// NewHTTPProvider constructs a provider client. backoff is the fixed delay
// schedule between attempts; its length bounds the retries.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration, backoff []time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		timeout: timeout,
		backoff: backoff,
		now:     time.Now,
	}
}

// wireResponse is the provider wire format. The timestamp may be epoch
// seconds or milliseconds; it is normalized before validation.
type wireResponse struct {
	Base      string             `json:"base"`
	Timestamp float64            `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

// FetchRates fetches and validates a snapshot for base. Failures come back
// as *domain.FetchError; NETWORK_ERROR, TIMEOUT, RATE_LIMIT and 5xx
// API_ERROR are retried, INVALID_RESPONSE and 4xx are not.
func (p *HTTPProvider) FetchRates(ctx context.Context, base string) (domain.RateSnapshot, error) {
	base = domain.NormalizeCode(base)

	var snapshot domain.RateSnapshot
	attempts := 0
	err := Retry(ctx, p.backoff, fetchRetryable, func(ctx context.Context) error {
		attempts++
		snap, err := p.fetchOnce(ctx, base)
		if err != nil {
			return err
		}
		snapshot = snap
		return nil
	})

	observability.ObserveFetchAttempts(attempts)
	if err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) {
			observability.IncrementFetchOutcome(string(fe.Kind))
		} else {
			observability.IncrementFetchOutcome("canceled")
		}
		zap.L().Warn("rate fetch failed",
			zap.String("base", base),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return domain.RateSnapshot{}, err
	}

	observability.IncrementFetchOutcome("success")
	return snapshot, nil
}

func fetchRetryable(err error) bool {
	var fe *domain.FetchError
	return errors.As(err, &fe) && fe.Retryable()
}

func (p *HTTPProvider) fetchOnce(ctx context.Context, base string) (domain.RateSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/latest/%s", p.baseURL, url.PathEscape(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.RateSnapshot{}, &domain.FetchError{
			Kind:    domain.FetchInvalidResponse,
			Message: "build provider request",
			Detail:  err.Error(),
		}
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.RateSnapshot{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RateSnapshot{}, classifyStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.RateSnapshot{}, classifyTransportError(ctx, err)
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return domain.RateSnapshot{}, &domain.FetchError{
			Kind:    domain.FetchInvalidResponse,
			Message: "provider response is not valid JSON",
			Detail:  err.Error(),
		}
	}

	return p.validate(wire)
}

// validate is the hard gate between the wire format and a usable snapshot.
// Nothing is coerced: a missing field, an out-of-window timestamp or a
// non-positive rate rejects the whole response.
func (p *HTTPProvider) validate(wire wireResponse) (domain.RateSnapshot, error) {
	invalid := func(msg string) error {
		return &domain.FetchError{Kind: domain.FetchInvalidResponse, Message: msg}
	}

	if wire.Base == "" {
		return domain.RateSnapshot{}, invalid("provider response missing base")
	}
	if wire.Timestamp <= 0 {
		return domain.RateSnapshot{}, invalid("provider response missing timestamp")
	}
	if len(wire.Rates) == 0 {
		return domain.RateSnapshot{}, invalid("provider response missing rates")
	}

	fetchedAt := normalizeEpoch(wire.Timestamp)
	now := p.now()
	if fetchedAt.Before(now.Add(-responseMaxAge)) {
		return domain.RateSnapshot{}, invalid("provider timestamp older than 24h")
	}
	if fetchedAt.After(now.Add(futureSkew)) {
		return domain.RateSnapshot{}, invalid("provider timestamp is in the future")
	}

	rates := make(map[string]decimal.Decimal, len(wire.Rates))
	for code, rate := range wire.Rates {
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return domain.RateSnapshot{}, invalid(fmt.Sprintf("rate for %s is not a positive finite number", code))
		}
		rates[domain.NormalizeCode(code)] = decimal.NewFromFloat(rate)
	}

	return domain.RateSnapshot{
		Base:      domain.NormalizeCode(wire.Base),
		FetchedAt: fetchedAt,
		Rates:     rates,
	}, nil
}

// normalizeEpoch accepts epoch seconds or milliseconds. Anything past the
// year 33658 in seconds is clearly milliseconds.
func normalizeEpoch(ts float64) time.Time {
	if ts > 1e12 {
		return time.UnixMilli(int64(ts))
	}
	return time.Unix(int64(ts), 0)
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.FetchError{
			Kind:    domain.FetchTimeout,
			Message: "provider request timed out",
			Detail:  err.Error(),
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		// Caller abort: propagate as-is so it is never retried and never
		// dressed up as a provider failure.
		return ctx.Err()
	}
	return &domain.FetchError{
		Kind:    domain.FetchNetworkError,
		Message: "provider request failed",
		Detail:  err.Error(),
	}
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &domain.FetchError{
			Kind:    domain.FetchRateLimit,
			Message: "provider rate limit exceeded",
			Status:  status,
		}
	default:
		return &domain.FetchError{
			Kind:    domain.FetchAPIError,
			Message: fmt.Sprintf("provider returned status %d", status),
			Status:  status,
		}
	}
}
