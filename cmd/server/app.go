package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/draftforge/draftforge-api/internal/config"
	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/notify"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/platform/postgres"
	"github.com/draftforge/draftforge-api/internal/queue"
	"github.com/draftforge/draftforge-api/internal/service"
	"github.com/draftforge/draftforge-api/internal/service/auth"
	"github.com/draftforge/draftforge-api/internal/store"
)

// application holds the front-facing process's shared dependencies to
// simplify wiring and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jobStore   store.JobStore
	taskQueue  queue.TaskQueue
	jwtService auth.JWTService
	jobService service.JobService

	registry   *notify.Registry
	notifier   *notify.Notifier
	subscriber events.Subscriber
}

// newApplication loads configuration and wires every component of the
// front-facing process. Migrations run before anything touches the schema.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"submission_delay_seconds", cfg.Queue.SubmissionDelaySeconds)

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := postgres.MigrateUp(db); err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	jobStore := postgres.NewJobStore(db, log)
	taskQueue := postgres.NewTaskQueue(db, queue.RetryPolicy{
		MaxAttempts: cfg.Queue.MaxAttempts,
		BaseDelay:   cfg.Queue.BackoffBase(),
	}, cfg.Queue.Lease(), log)

	jobService, err := service.NewJobService(jobStore, taskQueue, cfg.Queue.SubmissionDelay(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	registry := notify.NewRegistry(log)

	return &application{
		config:     cfg,
		logger:     log,
		db:         db,
		jobStore:   jobStore,
		taskQueue:  taskQueue,
		jwtService: jwtService,
		jobService: jobService,
		registry:   registry,
		notifier:   notify.NewNotifier(registry, jobStore, log),
		subscriber: postgres.NewEventSubscriber(cfg.Database.URL, log),
	}, nil
}

// run starts the completion-event subscriber and the HTTP server, returning
// when the context is canceled and shutdown has drained.
func (app *application) run(ctx context.Context) error {
	// The subscriber reconnects on its own; a permanent exit only happens
	// at shutdown. Push delivery is best-effort, so subscriber failure is
	// not fatal to the process.
	go func() {
		if err := app.notifier.Run(ctx, app.subscriber); err != nil && ctx.Err() == nil {
			app.logger.Error("event subscriber stopped", "error", err)
		}
	}()

	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases process resources. Safe to call once at exit.
func (app *application) cleanup() {
	app.registry.CloseAll()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
