// Package storage archives uploaded rosters and generated reports, either on
// the local filesystem or in Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/okian/recruitstat/pkg/logger"
)

// Backend names accepted by New.
const (
	BackendLocal = "local"
	BackendAzure = "azure"
)

// System manages object storage operations.
type System interface {
	// Init prepares the backing container or directory.
	Init(ctx context.Context) error
	// Upload streams data to the object at key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the object at key. The caller must close the reader.
	// Returns ErrNotFound if the object does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object at key. Returns ErrNotFound if the object does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and parameterises a backend.
type Config struct {
	Backend          string
	Root             string // local: base directory
	ContainerName    string // azure
	ConnectionString string // azure
}

// New creates a storage system from the given configuration.
func New(cfg Config, log logger.Logger) (System, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch strings.ToLower(cfg.Backend) {
	case "", BackendLocal:
		return NewLocal(cfg.Root, log)
	case BackendAzure:
		return NewAzure(cfg.ConnectionString, cfg.ContainerName, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
