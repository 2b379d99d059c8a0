package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/tayo-ak/currency-exchange/internal/api/handler"
	"github.com/tayo-ak/currency-exchange/internal/api/middleware"
	"github.com/tayo-ak/currency-exchange/internal/config"
	"github.com/tayo-ak/currency-exchange/internal/service"
	"go.uber.org/zap"
)

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *service.RatesService
	redis  redis.Cmdable
}

func NewRouter(cfg *config.Config, logger *zap.Logger, svc *service.RatesService, redis redis.Cmdable) *Router {
	return &Router{cfg: cfg, logger: logger, svc: svc, redis: redis}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))

	// Handlers
	ratesHandler := handler.NewRatesHandler(api.svc)
	convertHandler := handler.NewConvertHandler(api.svc)
	healthHandler := handler.NewHealthHandler(api.redis)

	// Operational
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Core surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/v1/currencies", ratesHandler.ListCurrencies)
		r.Get("/v1/rates/{base}", ratesHandler.GetRates)
		r.Post("/v1/rates/{base}/refresh", ratesHandler.RefreshRates)
		r.Post("/v1/convert", convertHandler.Convert)
		r.Post("/v1/amounts/validate", convertHandler.ValidateAmount)
	})

	return r
}
