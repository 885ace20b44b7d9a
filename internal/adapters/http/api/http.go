// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Upload runs the roster pipeline and replaces the current dataset.
	Upload(ctx context.Context, req types.UploadRequest) (types.UploadResponse, error)
	// Statistics returns the snapshot of the current dataset or types.ErrNoData.
	Statistics(ctx context.Context) (types.StatisticsResponse, error)
	// ClearDataset drops the current dataset and reports whether one was loaded.
	ClearDataset(ctx context.Context) bool

	History(ctx context.Context) ([]types.HistoryEntry, error)
	ClearHistory(ctx context.Context) (int, error)

	// GenerateReport renders and archives a report in one of the types.Format* formats.
	GenerateReport(ctx context.Context, format string, charts map[string]string) (types.ReportResponse, error)
	// OpenReport streams an archived report or returns types.ErrReportNotFound.
	OpenReport(ctx context.Context, filename string) (io.ReadCloser, error)

	// Ready returns nil once the service can take traffic.
	Ready(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	uploadHandler    *UploadHandler
	datasetHandler   *DatasetHandler
	historyHandler   *HistoryHandler
	reportHandler    *ReportHandler
	dashboardHandler *dashboardHandler
	events           http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{
		maxUploadBytes:       defaultMaxUploadBytes,
		maxDescriptionLength: defaultMaxDescriptionLength,
		log:                  logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(statsProvider),
		uploadHandler:    NewUploadHandler(deps, o.maxUploadBytes, o.maxDescriptionLength, o.log),
		datasetHandler:   NewDatasetHandler(deps),
		historyHandler:   NewHistoryHandler(deps, o.log),
		reportHandler:    NewReportHandler(deps, o.log),
		dashboardHandler: newDashboardHandler(),
		events:           o.events,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.healthHandler.HandleReady, "readyz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/upload", MetricsMiddleware(s.uploadHandler.HandleUpload, "upload"))
	mux.HandleFunc("/api/statistics", MetricsMiddleware(s.datasetHandler.HandleStatistics, "statistics"))
	mux.HandleFunc("/api/dataset", MetricsMiddleware(s.datasetHandler.HandleClear, "dataset"))
	mux.HandleFunc("/api/upload-history", MetricsMiddleware(s.historyHandler.HandleList, "upload_history"))
	mux.HandleFunc("/api/clear-history", MetricsMiddleware(s.historyHandler.HandleClear, "clear_history"))
	mux.HandleFunc("/api/generate-report", MetricsMiddleware(s.reportHandler.Handle(types.FormatMarkdown), "generate_report"))
	mux.HandleFunc("/api/generate-html-report", MetricsMiddleware(s.reportHandler.Handle(types.FormatHTML), "generate_html_report"))
	mux.HandleFunc("/api/generate-pdf-report", MetricsMiddleware(s.reportHandler.Handle(types.FormatPDF), "generate_pdf_report"))
	mux.HandleFunc("/api/download-report/", MetricsMiddleware(s.reportHandler.HandleDownload, "download_report"))
	if s.events != nil {
		mux.Handle("/api/events", s.events)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Detail repeats Message under the key browser clients read.
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeMessage(w, status, code, msg)
}

func writeMessage(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Detail: msg})
}

// writeServiceError classifies err and writes it. Server-side failures are
// logged.
func writeServiceError(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, op+" failed", logger.Error(err))
	}
	writeMessage(w, status, code, msg)
}
