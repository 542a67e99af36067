package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stflow/internal/infrastructure"
	"stflow/pkg/contracts"
	api "stflow/pkg/contracts/api/v1"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service   DatasetService
	collector *infrastructure.RuntimeCollector
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler. collector may be nil.
func NewHealthHandler(service DatasetService, collector *infrastructure.RuntimeCollector, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service:   service,
		collector: collector,
		logger:    logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:    "ok",
		Version:   contracts.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.service == nil {
		resp.Status = "unavailable"
		h.logger.WarnContext(r.Context(), "health check without a dataset")
		render.Status(r, http.StatusServiceUnavailable)
	} else {
		view := h.service.View()
		resp.Dataset = map[string]interface{}{
			"mode":   view.Mode().String(),
			"length": view.Len(),
		}
	}

	if h.collector != nil {
		resp.Runtime = h.collector.Snapshot(r.Context()).FormatStats()
	}

	render.JSON(w, r, resp)
}

// Version handles GET /api/v1/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
