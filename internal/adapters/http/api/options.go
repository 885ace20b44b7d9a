package api

import (
	"net/http"

	"github.com/okian/recruitstat/pkg/logger"
)

const (
	defaultMaxUploadBytes       = 50 << 20
	defaultMaxDescriptionLength = 500
)

type options struct {
	maxUploadBytes       int64
	maxDescriptionLength int
	log                  logger.Logger
	events               http.Handler
}

// Option configures a Server.
type Option func(*options)

// WithMaxUploadBytes caps the multipart body of uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithMaxDescriptionLength caps the upload description, in characters.
func WithMaxDescriptionLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDescriptionLength = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithEvents mounts a live notification handler at /api/events.
func WithEvents(h http.Handler) Option {
	return func(o *options) {
		o.events = h
	}
}
