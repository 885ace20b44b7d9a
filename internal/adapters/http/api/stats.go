package api

import (
	"encoding/json"
	"net/http"
)

// StatsProvider reports operational counters of the roster service: whether
// it is started, render pool and queue sizes, dedupe size, history cap and
// the record count and upload id of the current dataset.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler returns a handler over provider. A nil provider makes the
// route answer 404.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the counters as JSON. They change on every upload and
// render, so responses are never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || h.provider == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(h.provider.GetStats())
}
