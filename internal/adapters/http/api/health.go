// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/metrics"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps Dependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /healthz requests by exposing Prometheus metrics.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// HandleReady handles GET /readyz. It reports 503 until the service is ready.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, types.ReadyResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	_, err := h.deps.Statistics(r.Context())
	writeJSON(w, http.StatusOK, types.ReadyResponse{Status: "ready", Dataset: err == nil})
}
