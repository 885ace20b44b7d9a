package types

import "errors"

// Sentinel errors shared by the service and its transports.
var (
	// ErrNoData means no roster has been uploaded yet.
	ErrNoData = errors.New("no dataset loaded")
	// ErrInvalidUpload wraps rejections of the uploaded file or its form fields.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrBackpressure means the render queue is full.
	ErrBackpressure = errors.New("render queue full")
	// ErrReportNotFound means the requested report is not in the archive.
	ErrReportNotFound = errors.New("report not found")
	// ErrRenderTimeout means a PDF render missed its deadline.
	ErrRenderTimeout = errors.New("render timed out")
	// ErrUnknownFormat means a report format other than markdown, html or pdf.
	ErrUnknownFormat = errors.New("unknown report format")
)

// Report formats accepted by report generation.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatPDF      = "pdf"
)
