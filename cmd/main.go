package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/recruitstat/internal/adapters/http/api"
	"github.com/okian/recruitstat/internal/adapters/http/auth"
	"github.com/okian/recruitstat/internal/adapters/http/live"
	"github.com/okian/recruitstat/internal/adapters/http/site"
	"github.com/okian/recruitstat/internal/adapters/http/swagger"
	"github.com/okian/recruitstat/internal/adapters/render"
	"github.com/okian/recruitstat/internal/adapters/repository"
	app "github.com/okian/recruitstat/internal/app"
	"github.com/okian/recruitstat/internal/config"
	"github.com/okian/recruitstat/internal/domain/report"
	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
	"github.com/okian/recruitstat/pkg/storage"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	writeSlack                = 30 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "recruitstat exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitWith(logger.Options{Format: cfg.LogFormat}); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	hub := live.NewHub(log.Named("live"))
	defer hub.Close()

	svc, err := buildService(ctx, cfg, hub, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	handler, err := newHandler(ctx, cfg, svc, hub, log)
	if err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RenderTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return nil
}

// buildService wires storage, history, renderer and composer from cfg.
func buildService(ctx context.Context, cfg *config.Config, notifier app.Notifier, log logger.Logger) (*app.Service, error) {
	archive, err := storage.New(storage.Config{
		Backend:          cfg.Storage.Backend,
		Root:             cfg.DataDir,
		ContainerName:    cfg.Storage.Container,
		ConnectionString: cfg.Storage.ConnectionString,
	}, log.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	historyPath := cfg.HistoryDB
	if !filepath.IsAbs(historyPath) {
		historyPath = filepath.Join(cfg.DataDir, historyPath)
	}
	if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	history, err := repository.OpenSQLiteHistory(ctx, historyPath, log.Named("history"),
		repository.WithMaxRecords(cfg.MaxHistoryRecords))
	if err != nil {
		return nil, err
	}

	composer := report.New(
		report.WithClassYear(cfg.Report.ClassYear),
		report.WithOrganization(cfg.Report.Organization),
		report.WithTargetInstitutions(cfg.Report.TargetInstitutions),
	)
	renderer := render.NewChrome(render.Config{
		Bin:        cfg.Chrome.Bin,
		ControlURL: cfg.Chrome.ControlURL,
	}, log.Named("chrome"))

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithArchive(archive),
		app.WithHistory(history),
		app.WithHistorySize(cfg.MaxHistoryRecords),
		app.WithComposer(composer),
		app.WithRenderer(renderer),
		app.WithRenderWorkers(cfg.RenderWorkers),
		app.WithRenderQueueSize(cfg.RenderQueueSize),
		app.WithRenderTimeout(cfg.RenderTimeout),
		app.WithNotifier(notifier),
	), nil
}

// newHandler mounts the site, docs and API on one mux and wraps it with the
// login guard when auth is enabled.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, hub *live.Hub, log logger.Logger) (http.Handler, error) {
	mux := http.NewServeMux()

	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithMaxDescriptionLength(cfg.MaxDescriptionLength),
		api.WithLogger(log.Named("api")),
		api.WithEvents(live.Handler(hub)),
	)
	apiServer.Register(ctx, mux)

	var handler http.Handler = mux
	if cfg.Auth.Enabled {
		password, err := cfg.Auth.ResolvePassword()
		if err != nil {
			return nil, err
		}
		guard, err := auth.NewGuard(password, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, log.Named("auth"))
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		guard.Register(mux)
		handler = guard.Middleware(mux)
	}
	return api.LoggingMiddleware(log.Named("http"), handler), nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes render queue gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	queued, ok1 := stats["renderQueueLength"].(int)
	capacity, ok2 := stats["renderQueueSize"].(int)
	if ok1 && ok2 && capacity > 0 {
		metrics.UpdateQueueUtilization(float64(queued) / float64(capacity))
	}
}
