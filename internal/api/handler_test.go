package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayo-ak/currency-exchange/internal/api"
	"github.com/tayo-ak/currency-exchange/internal/cache"
	"github.com/tayo-ak/currency-exchange/internal/config"
	"github.com/tayo-ak/currency-exchange/internal/gateway"
	"github.com/tayo-ak/currency-exchange/internal/service"
	"go.uber.org/zap"
)

type testEnv struct {
	router   http.Handler
	provider *httptest.Server
	requests *atomic.Int64
}

// newTestEnv wires the full stack against a fake provider and miniredis.
func newTestEnv(t *testing.T, providerHandler http.HandlerFunc) *testEnv {
	t.Helper()

	var requests atomic.Int64
	providerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		providerHandler(w, r)
	}))
	t.Cleanup(providerServer.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		HTTPPort:           "0",
		ProviderBaseURL:    providerServer.URL,
		FetchTimeout:       time.Second,
		FetchBackoff:       []time.Duration{time.Millisecond, time.Millisecond},
		FreshnessWindow:    5 * time.Minute,
		StaleCeiling:       24 * time.Hour,
		PublicRateLimitRPS: 1000,
	}

	rateCache := cache.New(redisClient, cfg.FreshnessWindow, cfg.StaleCeiling)
	provider := gateway.NewHTTPProvider(cfg.ProviderBaseURL, "", cfg.FetchTimeout, cfg.FetchBackoff)
	svc := service.NewRatesService(rateCache, provider)

	router := api.NewRouter(cfg, zap.NewNop(), svc, redisClient)
	return &testEnv{
		router:   router.Routes(),
		provider: providerServer,
		requests: &requests,
	}
}

func serveRates(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Path[len("/latest/"):]
	payload, _ := json.Marshal(map[string]interface{}{
		"base":      base,
		"timestamp": time.Now().Unix(),
		"rates":     map[string]float64{"EUR": 0.93, "GBP": 0.79, "JPY": 147.5},
	})
	_, _ = w.Write(payload)
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetRatesEndpoint(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodGet, "/v1/rates/USD", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "USD", body["base"])
	assert.Equal(t, "network", body["source"])
	assert.NotEmpty(t, body["rates"])

	// Second request is served from cache without touching the provider.
	rec = env.do(t, http.MethodGet, "/v1/rates/usd", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "cache", body["source"])
	assert.Equal(t, int64(1), env.requests.Load())
}

func TestGetRatesRejectsBadCurrency(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodGet, "/v1/rates/DOLLARS", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	assert.Equal(t, int64(0), env.requests.Load())
}

func TestGetRatesProviderDown(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := env.do(t, http.MethodGet, "/v1/rates/USD", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Contains(t, body["type"], "rates/")
}

func TestRefreshEndpointForcesFetch(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodGet, "/v1/rates/USD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), env.requests.Load())

	rec = env.do(t, http.MethodPost, "/v1/rates/USD/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "network", body["source"])
	assert.Equal(t, int64(2), env.requests.Load(), "refresh bypasses the fresh cache")
}

func TestConvertEndpoint(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodPost, "/v1/convert", map[string]string{
		"amount": "100",
		"from":   "USD",
		"to":     "EUR",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "€93.00", body["formatted"])
	assert.Equal(t, "network", body["source"])
}

func TestConvertEndpointValidationFailure(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodPost, "/v1/convert", map[string]string{
		"amount": "-50",
		"from":   "USD",
		"to":     "EUR",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(0), env.requests.Load(), "validation failures never reach the provider")

	body := decodeBody(t, rec)
	assert.Contains(t, body["type"], "validation/negative-amount")
}

func TestConvertEndpointMissingRate(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodPost, "/v1/convert", map[string]string{
		"amount": "10",
		"from":   "USD",
		"to":     "CHF",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestValidateAmountEndpoint(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodPost, "/v1/amounts/validate", map[string]string{"amount": "1.234,56"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])

	rec = env.do(t, http.MethodPost, "/v1/amounts/validate", map[string]string{"amount": "-50"})
	require.Equal(t, http.StatusOK, rec.Code, "a rejected amount is a result, not an HTTP error")
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "NEGATIVE_AMOUNT", body["error"])
}

func TestListCurrenciesEndpoint(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodGet, "/v1/currencies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["currencies"])
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "ok", body["durable_cache"])
}

func TestTraceHeaderPropagation(t *testing.T) {
	env := newTestEnv(t, serveRates)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get("X-Trace-ID"))
}
