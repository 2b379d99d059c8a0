package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tayo-ak/currency-exchange/internal/api"
	"github.com/tayo-ak/currency-exchange/internal/cache"
	"github.com/tayo-ak/currency-exchange/internal/config"
	"github.com/tayo-ak/currency-exchange/internal/gateway"
	"github.com/tayo-ak/currency-exchange/internal/observability"
	"github.com/tayo-ak/currency-exchange/internal/service"
	"github.com/tayo-ak/currency-exchange/internal/worker"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and refresh worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A dead durable tier degrades the cache to memory-only; it never
	// blocks startup.
	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Warn("durable cache tier unavailable, running memory-only", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var rdb redis.Cmdable
	if redisClient != nil {
		rdb = redisClient
	}
	rateCache := cache.New(rdb, cfg.FreshnessWindow, cfg.StaleCeiling)
	provider := gateway.NewHTTPProvider(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.FetchTimeout, cfg.FetchBackoff)
	ratesSvc := service.NewRatesService(rateCache, provider)

	if len(cfg.PreloadBases) > 0 {
		go ratesSvc.PreloadRates(ctx, cfg.PreloadBases)
	}

	refreshWorker := worker.NewRefreshWorker(ratesSvc, cfg.PreloadBases)
	refreshWorker.WithInterval(cfg.RefreshInterval)
	stopWorker := refreshWorker.Run(ctx)
	logger.Info("refresh worker started",
		zap.Duration("interval", cfg.RefreshInterval),
		zap.Strings("bases", cfg.PreloadBases),
	)

	router := api.NewRouter(cfg, logger, ratesSvc, rdb)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping refresh worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
