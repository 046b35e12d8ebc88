package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/meritrack/internal/adapters/events"
	"github.com/okian/meritrack/internal/adapters/github"
	"github.com/okian/meritrack/internal/adapters/http/api"
	"github.com/okian/meritrack/internal/adapters/http/swagger"
	"github.com/okian/meritrack/internal/adapters/repository"
	service "github.com/okian/meritrack/internal/app"
	"github.com/okian/meritrack/internal/config"
	"github.com/okian/meritrack/internal/domain/skillgap"
	"github.com/okian/meritrack/internal/guard"
	"github.com/okian/meritrack/internal/scheduler"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "meritrack exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "store close failed", logger.Error(err))
		}
	}()

	publisher, closePublisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	svc := service.New(store,
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithGitHub(newGitHubClient(cfg, log)),
		service.WithAnalyzer(skillgap.NewAnalyzer(skillgap.WithRoles(cfg.Roles))),
		service.WithPublisher(publisher),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	if cfg.ResyncSchedule != "" {
		sched := scheduler.New(svc, svc,
			scheduler.WithSpec(cfg.ResyncSchedule),
			scheduler.WithLogger(log.Named("scheduler")),
		)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, store),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
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
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore selects the persistence backend named by the config.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := repository.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store, err := repository.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := repository.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	case config.DriverMemory, "":
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// openPublisher returns a Redis publisher when a URL is configured and a
// no-op publisher otherwise.
func openPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (events.Publisher, func(), error) {
	if cfg.RedisURL == "" {
		return events.Nop{}, func() {}, nil
	}
	client, err := events.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	pub := events.NewRedisPublisher(client,
		events.WithChannel(cfg.EventsChannel),
		events.WithLogger(log.Named("events")),
	)
	return pub, func() {
		if err := client.Close(); err != nil {
			log.Warn(ctx, "redis close failed", logger.Error(err))
		}
	}, nil
}

func newGitHubClient(cfg *config.Config, log logger.Logger) *github.Client {
	return github.NewClient(
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithTimeout(time.Duration(cfg.GitHubTimeoutMS)*time.Millisecond),
		github.WithRateLimit(cfg.GitHubRatePerSec, cfg.GitHubBurst),
		github.WithLogger(log.Named("github")),
	)
}

// newMux registers the docs and the API routes. Per-user routes sit
// behind the access guard.
func newMux(ctx context.Context, deps api.Dependencies, users guard.UserLookup) *http.ServeMux {
	g := guard.New(users, guard.WithErrorHandler(api.WriteGuardError))
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(deps, g).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater periodically publishes queue gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
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

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok && stats["started"] == true {
		metrics.UpdateWorkerCount(workerCount)
	}
}
