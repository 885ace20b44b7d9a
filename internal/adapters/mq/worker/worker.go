// Package worker runs render jobs pulled from the render queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/recruitstat/internal/adapters/mq/queue"
	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultRenderTimeout = 60 * time.Second
	poolShutdownTimeout  = 30 * time.Second
)

// ErrExpired is returned for jobs whose deadline passed while queued.
var ErrExpired = errors.New("render job expired in queue")

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Renderer prints an HTML page to PDF.
type Renderer interface {
	Render(ctx context.Context, html string, props map[string]string) ([]byte, int, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for render jobs.
type InMemoryWorker struct {
	queue    Queue
	renderer Renderer
	name     string
	timeout  time.Duration

	shutdown chan struct{}
	done     chan struct{}
	busy     *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, renderer Renderer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		renderer: renderer,
		name:     "worker",
		timeout:  defaultRenderTimeout,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		busy:     new(atomic.Int64),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "render job failed", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process renders one job and always answers on its reply channel.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	w.busy.Add(1)
	defer func() {
		w.busy.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !job.Deadline.IsZero() && start.After(job.Deadline) {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "expired")
		job.Respond(model.RenderResult{Err: ErrExpired})
		return ErrExpired
	}
	if !job.Enqueued.IsZero() {
		metrics.RecordQueueProcessingLatency(float64(start.Sub(job.Enqueued).Milliseconds()))
	}

	var (
		rctx   context.Context
		cancel context.CancelFunc
	)
	if job.Deadline.IsZero() {
		rctx, cancel = context.WithTimeout(ctx, w.timeout)
	} else {
		rctx, cancel = context.WithDeadline(ctx, job.Deadline)
	}
	defer cancel()

	pdf, pages, err := w.renderer.Render(rctx, job.HTML, job.Properties)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "render_error")
		metrics.RecordErrorByType("render_error", "high")
		job.Respond(model.RenderResult{Err: err})
		return fmt.Errorf("render %s: %w", job.ID, err)
	}

	metrics.RecordReportPages(pages)
	job.Respond(model.RenderResult{PDF: pdf, Pages: pages})
	w.logger.Debug(ctx, "render job done",
		logger.String("job_id", job.ID),
		logger.Int("pages", pages),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    *atomic.Int64
	logger  logger.Logger
}

// NewPool creates a new worker pool. A count below one uses half the CPUs.
func NewPool(workerCount int, q Queue, renderer Renderer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = max(1, runtime.NumCPU()/2)
	}

	base := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(base)
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		busy:    new(atomic.Int64),
		logger:  base.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, renderer, wopts...)
		w.busy = pool.busy
		pool.workers[i] = w
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns the number of jobs being rendered right now.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to finish their current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for _, w := range p.workers {
		close(w.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
