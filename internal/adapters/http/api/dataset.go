package api

import (
	"net/http"

	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
)

// DatasetHandler serves the current dataset.
type DatasetHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps Dependencies) *DatasetHandler {
	return &DatasetHandler{deps: deps, log: logger.Nop()}
}

// HandleStatistics handles GET /api/statistics.
func (h *DatasetHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	resp, err := h.deps.Statistics(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, "api.statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleClear handles DELETE /api/dataset.
func (h *DatasetHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	msg := "当前数据已清除"
	if !h.deps.ClearDataset(r.Context()) {
		msg = "当前没有已加载的数据"
	}
	writeJSON(w, http.StatusOK, types.MessageResponse{Message: msg})
}
