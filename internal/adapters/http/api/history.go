package api

import (
	"net/http"

	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
)

// HistoryHandler serves the upload history.
type HistoryHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps Dependencies, log logger.Logger) *HistoryHandler {
	return &HistoryHandler{deps: deps, log: log}
}

// HandleList handles GET /api/upload-history.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	entries, err := h.deps.History(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, "api.upload_history", err)
		return
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, types.HistoryResponse{History: entries})
}

// HandleClear handles DELETE /api/clear-history.
func (h *HistoryHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	n, err := h.deps.ClearHistory(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, "api.clear_history", err)
		return
	}
	writeJSON(w, http.StatusOK, types.ClearHistoryResponse{Message: "历史记录已清除", Removed: n})
}
