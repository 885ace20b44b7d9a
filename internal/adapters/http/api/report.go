package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
)

// maxReportRequestBytes bounds the JSON body carrying chart images.
const maxReportRequestBytes = 32 << 20

// DownloadPrefix is the route prefix for archived reports.
const DownloadPrefix = "/api/download-report/"

var contentTypes = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".pdf":  "application/pdf",
}

// ReportHandler generates and serves reports.
type ReportHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies, log logger.Logger) *ReportHandler {
	return &ReportHandler{deps: deps, log: log}
}

// Handle returns the POST handler generating a report in format.
func (h *ReportHandler) Handle(format string) http.HandlerFunc {
	op := "api.generate_report." + format
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req types.ReportRequest
		body := http.MaxBytesReader(w, r.Body, maxReportRequestBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}

		resp, err := h.deps.GenerateReport(r.Context(), format, req.ChartImages)
		if errors.Is(err, types.ErrNoData) {
			writeMessage(w, http.StatusBadRequest, "no_data", "没有可用的数据")
			return
		}
		if err != nil {
			writeServiceError(r.Context(), w, h.log, op, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleDownload handles GET /api/download-report/{filename}.
func (h *ReportHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	const op = "api.download_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, DownloadPrefix)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		writeMessage(w, http.StatusNotFound, "not_found", "报告文件不存在")
		return
	}

	rc, err := h.deps.OpenReport(r.Context(), name)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, op, err)
		return
	}
	defer func() { _ = rc.Close() }()

	ct, ok := contentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn(r.Context(), "download interrupted", logger.String("filename", name), logger.Error(err))
	}
}
