package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort           string
	RedisURL           string
	ProviderBaseURL    string
	ProviderAPIKey     string
	FetchTimeout       time.Duration
	FetchBackoff       []time.Duration
	FreshnessWindow    time.Duration
	StaleCeiling       time.Duration
	PreloadBases       []string
	RefreshInterval    time.Duration
	PublicRateLimitRPS int
	LogLevel           string
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "RATES_PORT")
	bindEnv(v, "redis_url", "REDIS_URL", "RATES_REDIS_URL")
	bindEnv(v, "provider_base_url", "PROVIDER_BASE_URL", "RATES_PROVIDER_BASE_URL")
	bindEnv(v, "provider_api_key", "PROVIDER_API_KEY", "RATES_PROVIDER_API_KEY")
	bindEnv(v, "fetch_timeout", "FETCH_TIMEOUT", "RATES_FETCH_TIMEOUT")
	bindEnv(v, "fetch_backoff", "FETCH_BACKOFF", "RATES_FETCH_BACKOFF")
	bindEnv(v, "freshness_window", "FRESHNESS_WINDOW", "RATES_FRESHNESS_WINDOW")
	bindEnv(v, "stale_ceiling", "STALE_CEILING", "RATES_STALE_CEILING")
	bindEnv(v, "preload_bases", "PRELOAD_BASES", "RATES_PRELOAD_BASES")
	bindEnv(v, "refresh_interval", "REFRESH_INTERVAL", "RATES_REFRESH_INTERVAL")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "RATES_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "log_level", "LOG_LEVEL", "RATES_LOG_LEVEL")

	v.SetDefault("port", "8080")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("provider_base_url", "")
	v.SetDefault("provider_api_key", "")
	v.SetDefault("fetch_timeout", "5s")
	v.SetDefault("fetch_backoff", "200ms,400ms")
	v.SetDefault("freshness_window", "5m")
	v.SetDefault("stale_ceiling", "24h")
	v.SetDefault("preload_bases", "USD,EUR,GBP")
	v.SetDefault("refresh_interval", "5m")
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("log_level", "info")

	fetchTimeout, err := time.ParseDuration(v.GetString("fetch_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	freshness, err := time.ParseDuration(v.GetString("freshness_window"))
	if err != nil {
		return nil, fmt.Errorf("invalid FRESHNESS_WINDOW: %w", err)
	}
	staleCeiling, err := time.ParseDuration(v.GetString("stale_ceiling"))
	if err != nil {
		return nil, fmt.Errorf("invalid STALE_CEILING: %w", err)
	}
	refreshInterval, err := time.ParseDuration(v.GetString("refresh_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	backoff, err := parseBackoff(v.GetString("fetch_backoff"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_BACKOFF: %w", err)
	}

	cfg := &Config{
		HTTPPort:           v.GetString("port"),
		RedisURL:           v.GetString("redis_url"),
		ProviderBaseURL:    strings.TrimRight(v.GetString("provider_base_url"), "/"),
		ProviderAPIKey:     v.GetString("provider_api_key"),
		FetchTimeout:       fetchTimeout,
		FetchBackoff:       backoff,
		FreshnessWindow:    freshness,
		StaleCeiling:       staleCeiling,
		PreloadBases:       parseBases(v.GetString("preload_bases")),
		RefreshInterval:    refreshInterval,
		PublicRateLimitRPS: max(v.GetInt("public_rate_limit_rps"), 1),
		LogLevel:           v.GetString("log_level"),
	}

	if cfg.ProviderBaseURL == "" {
		return nil, fmt.Errorf("PROVIDER_BASE_URL is required")
	}
	if cfg.FreshnessWindow <= 0 {
		return nil, fmt.Errorf("FRESHNESS_WINDOW must be positive")
	}
	if cfg.StaleCeiling <= cfg.FreshnessWindow {
		return nil, fmt.Errorf("STALE_CEILING must exceed FRESHNESS_WINDOW")
	}

	return cfg, nil
}

// parseBackoff reads a comma-separated delay list like "200ms,400ms".
func parseBackoff(raw string) ([]time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	delays := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("negative delay %q", part)
		}
		delays = append(delays, d)
	}
	return delays, nil
}

func parseBases(raw string) []string {
	var bases []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			bases = append(bases, part)
		}
	}
	return bases
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
