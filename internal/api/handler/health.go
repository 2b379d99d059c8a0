package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthHandler exposes Kubernetes-style liveness and readiness endpoints.
type HealthHandler struct {
	redis redis.Cmdable
}

func NewHealthHandler(redis redis.Cmdable) *HealthHandler {
	return &HealthHandler{redis: redis}
}

// Live always reports OK – if the process is up, it's live.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports the durable cache tier's state. A dead Redis degrades the
// cache to memory-only but never makes the service unready: rate serving
// works without it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	durable := "disabled"
	if h.redis != nil {
		durable = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			durable = "unavailable"
		}
	}

	RespondJSON(w, http.StatusOK, map[string]string{
		"status":        "ready",
		"durable_cache": durable,
	})
}
