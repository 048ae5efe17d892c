// Package main implements the DraftForge worker process: it drains the
// delayed task queue, runs generation, finalizes job records, and publishes
// completion events.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/draftforge/draftforge-api/internal/config"
	"github.com/draftforge/draftforge-api/internal/platform/gemini"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/platform/postgres"
	"github.com/draftforge/draftforge-api/internal/queue"
	"github.com/draftforge/draftforge-api/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker exited with error: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	logg.Info("worker configuration loaded",
		"concurrency", cfg.Worker.Concurrency,
		"rate_limit", cfg.Worker.RateLimit,
		"rate_window_seconds", cfg.Worker.RateWindowSeconds,
		"max_attempts", cfg.Queue.MaxAttempts)

	db, err := setupDatabase(cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logg.Error("failed to close database", "error", err)
		}
	}()

	if err := postgres.MigrateUp(db); err != nil {
		return err
	}

	generator, err := gemini.NewGenerator(ctx, logg, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	jobStore := postgres.NewJobStore(db, logg)
	taskQueue := postgres.NewTaskQueue(db, queue.RetryPolicy{
		MaxAttempts: cfg.Queue.MaxAttempts,
		BaseDelay:   cfg.Queue.BackoffBase(),
	}, cfg.Queue.Lease(), logg)
	publisher := postgres.NewEventPublisher(db, logg)

	pool, err := worker.NewPool(taskQueue, jobStore, generator, publisher, worker.PoolConfig{
		Concurrency:  cfg.Worker.Concurrency,
		RateLimit:    cfg.Worker.RateLimit,
		RateWindow:   cfg.Worker.RateWindow(),
		PollInterval: cfg.Worker.PollInterval(),
		DrainTimeout: cfg.Worker.DrainTimeout(),
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}

	return pool.Run(ctx)
}

// setupDatabase opens the worker's own connection pool, sized for the
// concurrency cap plus the queue poller, and verifies reachability.
func setupDatabase(cfg *config.Config, logg *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Worker.Concurrency + 2)
	db.SetMaxIdleConns(cfg.Worker.Concurrency)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	logg.Info("database connection established")
	return db, nil
}
