package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. A nil store is always healthy.
func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// Health answers 200 when storage responds and 503 otherwise
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		pkghttp.WriteData(w, http.StatusOK, healthResponse{Status: "ok", Storage: "memory"}, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.store.HealthCheck(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		pkghttp.WriteErrorWithData(w, http.StatusServiceUnavailable, "storage_unavailable",
			healthResponse{Status: "degraded", Storage: "unreachable"}, "storage is unreachable")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, healthResponse{Status: "ok", Storage: "postgres"}, "")
}
