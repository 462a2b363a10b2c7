// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github-gitee-mirror/internal/activity"
	"github-gitee-mirror/internal/api"
	"github-gitee-mirror/internal/cache"
	"github-gitee-mirror/internal/config"
	"github-gitee-mirror/internal/database"
	"github-gitee-mirror/internal/metrics"
	"github-gitee-mirror/internal/mirror"
	"github-gitee-mirror/internal/provider"
	"github-gitee-mirror/internal/queue"
	"github-gitee-mirror/internal/syncer"
	"github-gitee-mirror/migrations"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := migrations.Up(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Redis connection established")

	// 6. Initialize application components
	m := metrics.New()
	source := provider.NewGitHub(cfg.GithubAPIURL, logger)
	target := provider.NewGitee(cfg.GiteeAPIURL, cfg.GiteeWebURL, nil, logger)
	mirrorer := mirror.New(mirror.NewExecRunner(cfg.GitBinary, cfg.GitTimeout), cfg.WorkDir, logger)
	jobs := queue.New(rdb, queue.DefaultKey)

	engine := syncer.NewSyncer(dbpool, source, target, mirrorer, jobs, m, logger, syncer.Options{
		AccountPacing: cfg.AccountPacing,
		StaleAfter:    cfg.StaleTaskAfter,
	})
	pool := queue.NewPool(jobs, cfg.WorkerCount, func(ctx context.Context, job queue.Job) error {
		return engine.Execute(ctx, job.TaskID)
	}, logger)
	scheduler, err := syncer.NewScheduler(engine, cfg.SyncSchedule, cfg.SyncLocation, cfg.ReaperInterval, logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	q := database.New(dbpool)
	views := activity.NewService(q, source, cache.New(rdb), cfg.RepoCacheTTL, cfg.DashboardCacheTTL, logger)
	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			DB:            q,
			Engine:        engine,
			Views:         views,
			Metrics:       m.Handler(),
			WebhookSecret: cfg.WebhookSecret,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Run workers, scheduler and HTTP server until shutdown
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received. Draining...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("Application started. Waiting for shutdown signal...")
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
