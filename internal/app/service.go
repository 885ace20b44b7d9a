// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/recruitstat/internal/adapters/http/api"
	"github.com/okian/recruitstat/internal/adapters/http/live"
	renderqueue "github.com/okian/recruitstat/internal/adapters/mq/queue"
	workerpool "github.com/okian/recruitstat/internal/adapters/mq/worker"
	"github.com/okian/recruitstat/internal/adapters/render"
	"github.com/okian/recruitstat/internal/adapters/repository"
	"github.com/okian/recruitstat/internal/domain/dedupe"
	"github.com/okian/recruitstat/internal/domain/report"
	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
	"github.com/okian/recruitstat/pkg/storage"
)

var _ api.Dependencies = (*Service)(nil)

// Sentinel errors for service lifecycle.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrNotConfigured = errors.New("service dependency not configured")
)

// Archive key prefixes.
const (
	uploadsPrefix = "uploads/"
	reportsPrefix = "reports/"
)

// Notifier receives dataset change events.
type Notifier interface {
	Publish(e live.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(live.Event) {}

// Service implements the API dependencies for the roster statistics system.
type Service struct {
	mu sync.RWMutex
	// uploadMu serialises the dedupe, archive and history steps of uploads.
	uploadMu sync.Mutex

	// Core components
	dataset     *repository.DatasetStore
	history     repository.HistoryStore
	archive     storage.System
	deduper     dedupe.Deduper
	composer    *report.Composer
	renderer    render.Renderer
	renderQueue *renderqueue.InMemoryQueue
	workerPool  *workerpool.Pool
	notifier    Notifier

	// Configuration
	renderWorkers   int
	renderQueueSize int
	renderTimeout   time.Duration
	historySize     int
	now             func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithHistory sets the upload history store. Required.
func WithHistory(h repository.HistoryStore) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithArchive sets the object store for uploads and reports. Required.
func WithArchive(a storage.System) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithRenderer sets the HTML to PDF renderer. Without one, PDF reports fail.
func WithRenderer(r render.Renderer) Option {
	return func(s *Service) {
		s.renderer = r
	}
}

// WithComposer sets the report composer.
func WithComposer(c *report.Composer) Option {
	return func(s *Service) {
		if c != nil {
			s.composer = c
		}
	}
}

// WithNotifier sets the receiver of dataset change events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRenderWorkers sets the number of concurrent PDF renders.
func WithRenderWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.renderWorkers = count
		}
	}
}

// WithRenderQueueSize sets the maximum number of pending PDF renders.
func WithRenderQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.renderQueueSize = size
		}
	}
}

// WithRenderTimeout bounds a PDF render including its wait in the queue.
func WithRenderTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.renderTimeout = d
		}
	}
}

// WithHistorySize sets how many upload digests are remembered for dedupe.
// It should match the history cap.
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithClock replaces time.Now for upload timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataset:         repository.NewDatasetStore(),
		composer:        report.New(),
		notifier:        nopNotifier{},
		renderWorkers:   max(1, runtime.NumCPU()/2),
		renderQueueSize: 16,
		renderTimeout:   60 * time.Second,
		historySize:     repository.DefaultMaxHistory,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components and reloads the latest upload.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.archive == nil || s.history == nil {
		return fmt.Errorf("%w: archive and history are required", ErrNotConfigured)
	}

	s.logger.Info(ctx, "starting roster service...")

	if err := s.archive.Init(ctx); err != nil {
		return fmt.Errorf("init archive: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.historySize))
	if err := s.seedDeduper(ctx); err != nil {
		return err
	}

	s.renderQueue = renderqueue.NewInMemoryQueue(renderqueue.WithCapacity(s.renderQueueSize))
	if s.renderer != nil {
		s.workerPool = workerpool.NewPool(s.renderWorkers, s.renderQueue, s.renderer,
			workerpool.WithRenderTimeout(s.renderTimeout),
			workerpool.WithLogger(s.logger.Named("render")),
		)
		s.workerPool.Start(context.WithoutCancel(ctx))
	} else {
		s.logger.Warn(ctx, "no pdf renderer configured, pdf reports are disabled")
	}

	s.autoLoad(ctx)

	s.started = true
	s.logger.Info(ctx, "roster service started",
		logger.Int("renderWorkers", s.renderWorkers),
		logger.Int("renderQueueSize", s.renderQueueSize),
		logger.Duration("renderTimeout", s.renderTimeout),
		logger.Int("historySize", s.historySize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping roster service...")

	var errs []error
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	} else if s.renderQueue != nil {
		_ = s.renderQueue.Close()
	}
	if closer, ok := s.renderer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close renderer: %w", err))
		}
	}
	if err := s.history.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "roster service stopped")
	return errors.Join(errs...)
}

// Ready returns nil once Start has completed.
func (s *Service) Ready(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]any{
		"started":         s.started,
		"renderWorkers":   s.renderWorkers,
		"renderQueueSize": s.renderQueueSize,
		"historySize":     s.historySize,
		"pdfEnabled":      s.renderer != nil,
	}
	if !s.started {
		return out
	}

	queueLen := s.renderQueue.Len(ctx)
	out["renderQueueLength"] = queueLen
	out["dedupeSize"] = s.deduper.Size()
	if s.workerPool != nil {
		out["renderBusy"] = s.workerPool.Busy()
	}
	if cur, err := s.dataset.Current(); err == nil {
		out["datasetRecords"] = len(cur.Enriched)
		out["datasetUploadId"] = cur.ID
	}
	metrics.UpdateQueueSize(queueLen)
	return out
}

// check returns ErrNotStarted before Start.
func (s *Service) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
