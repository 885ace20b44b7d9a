// Package types contains request and response shapes shared across the application
package types

import (
	"time"

	"github.com/okian/recruitstat/internal/domain/stats"
)

// HistoryEntry is one accepted upload in the history log.
type HistoryEntry struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Description  string    `json:"description"`
	UploadTime   time.Time `json:"upload_time"`
	FileSize     int64     `json:"file_size"`
	RecordCount  int       `json:"record_count"`
	Digest       string    `json:"digest"`
}

// UploadRequest is an uploaded roster file with its form fields.
type UploadRequest struct {
	Filename    string
	Description string
	Content     []byte
}

// UploadResponse acknowledges an accepted roster.
type UploadResponse struct {
	Message     string    `json:"message"`
	UploadID    string    `json:"upload_id"`
	Filename    string    `json:"filename"`
	RecordCount int       `json:"record_count"`
	UploadTime  time.Time `json:"upload_time"`
	Duplicate   bool      `json:"duplicate"`
}

// StatisticsResponse is the snapshot of the current dataset plus its upload
// metadata.
type StatisticsResponse struct {
	stats.Snapshot
	UploadID    string    `json:"upload_id"`
	UploadTime  time.Time `json:"upload_time"`
	Description string    `json:"description"`
}

// HistoryResponse lists uploads newest first.
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

// ReportRequest carries chart images keyed by dimension.
type ReportRequest struct {
	ChartImages map[string]string `json:"chart_images"`
}

// ReportResponse describes a generated and archived report.
type ReportResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// InvalidUploadError carries the user-facing reason a roster was rejected.
// It matches ErrInvalidUpload and the underlying cause with errors.Is.
type InvalidUploadError struct {
	Reason string
	Err    error
}

func (e *InvalidUploadError) Error() string { return e.Reason }

func (e *InvalidUploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidUpload}
	}
	return []error{ErrInvalidUpload, e.Err}
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClearHistoryResponse reports how many uploads were forgotten.
type ClearHistoryResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// ReadyResponse is the body of the readiness probe.
type ReadyResponse struct {
	Status  string `json:"status"`
	Dataset bool   `json:"dataset"`
	Error   string `json:"error,omitempty"`
}
