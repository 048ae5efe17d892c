package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/generation"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/queue"
	"github.com/draftforge/draftforge-api/internal/store"
)

// PoolConfig holds configuration for the worker pool.
type PoolConfig struct {
	// Concurrency bounds the number of in-flight tasks.
	Concurrency int

	// RateLimit and RateWindow shape throughput against the external
	// collaborator: at most RateLimit generations per RateWindow.
	RateLimit  int
	RateWindow time.Duration

	// PollInterval is how often the queue is polled for ready tasks.
	PollInterval time.Duration

	// DrainTimeout bounds how long shutdown waits for in-flight tasks
	// before canceling them.
	DrainTimeout time.Duration
}

// DefaultPoolConfig returns a PoolConfig with the stock queue shape.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Concurrency:  5,
		RateLimit:    10,
		RateWindow:   60 * time.Second,
		PollInterval: time.Second,
		DrainTimeout: 30 * time.Second,
	}
}

// Pool drains the task queue and executes the task lifecycle: mark the job
// processing, call the generation collaborator, finalize the record, publish
// the completion event, and settle the task with the queue.
type Pool struct {
	queue     queue.TaskQueue
	jobs      store.JobStore
	generator generation.Generator
	publisher events.Publisher
	limiter   *rate.Limiter
	config    PoolConfig
	logger    *slog.Logger

	sem chan struct{}
}

// NewPool creates a worker pool. All collaborators are required.
func NewPool(
	taskQueue queue.TaskQueue,
	jobs store.JobStore,
	generator generation.Generator,
	publisher events.Publisher,
	cfg PoolConfig,
	log *slog.Logger,
) (*Pool, error) {
	if taskQueue == nil {
		return nil, errors.New("taskQueue cannot be nil")
	}
	if jobs == nil {
		return nil, errors.New("jobs store cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultPoolConfig().Concurrency
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPoolConfig().PollInterval
	}
	if cfg.RateLimit <= 0 || cfg.RateWindow <= 0 {
		def := DefaultPoolConfig()
		cfg.RateLimit = def.RateLimit
		cfg.RateWindow = def.RateWindow
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultPoolConfig().DrainTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	return &Pool{
		queue:     taskQueue,
		jobs:      jobs,
		generator: generator,
		publisher: publisher,
		limiter: rate.NewLimiter(
			rate.Limit(float64(cfg.RateLimit)/cfg.RateWindow.Seconds()),
			cfg.RateLimit,
		),
		config: cfg,
		logger: log.With(slog.String("component", "worker_pool")),
	}, nil
}

// Run polls the queue until the context is canceled, then waits for
// in-flight tasks to finish before returning. Each leased task is processed
// on its own goroutine, bounded by the concurrency cap.
func (p *Pool) Run(ctx context.Context) error {
	p.sem = make(chan struct{}, p.config.Concurrency)

	// Tasks run on a context decoupled from the poll loop's: a shutdown
	// signal stops polling but lets work already in flight finish. The
	// drain timeout is the backstop for a task that never returns.
	taskCtx, cancelTasks := context.WithCancel(context.Background())
	defer cancelTasks()

	p.logger.Info("worker pool started",
		slog.Int("concurrency", p.config.Concurrency),
		slog.Int("rate_limit", p.config.RateLimit),
		slog.Duration("rate_window", p.config.RateWindow),
		slog.Duration("poll_interval", p.config.PollInterval))

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.drain(cancelTasks)
			return ctx.Err()
		case <-ticker.C:
		}

		free := cap(p.sem) - len(p.sem)
		if free == 0 {
			continue
		}

		tasks, err := p.queue.Dequeue(ctx, free)
		if err != nil {
			if ctx.Err() != nil {
				p.drain(cancelTasks)
				return ctx.Err()
			}
			p.logger.Error("failed to dequeue tasks", slog.String("error", err.Error()))
			continue
		}

		for _, task := range tasks {
			p.sem <- struct{}{}
			go func(task *queue.Task) {
				defer func() { <-p.sem }()
				p.process(taskCtx, task)
			}(task)
		}
	}
}

// drain blocks until every in-flight task has released its slot, canceling
// what remains once the drain timeout passes.
func (p *Pool) drain(cancelTasks context.CancelFunc) {
	p.logger.Info("worker pool draining", slog.Int("in_flight", len(p.sem)))

	timer := time.AfterFunc(p.config.DrainTimeout, cancelTasks)
	defer timer.Stop()

	for i := 0; i < cap(p.sem); i++ {
		p.sem <- struct{}{}
	}
	p.logger.Info("worker pool stopped")
}

// process runs one leased task through the job lifecycle. Failures are
// settled with the queue so its retry policy governs redelivery; only retry
// exhaustion finalizes the record as errored.
func (p *Pool) process(ctx context.Context, task *queue.Task) {
	log := p.logger.With(
		slog.String("job_id", task.JobID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.Int("attempt", task.Attempts))
	ctx = logger.WithLogger(ctx, log)

	log.Info("task active", slog.String("content_type", task.ContentType.String()))

	if err := p.jobs.MarkProcessing(ctx, task.JobID); err != nil {
		switch {
		case errors.Is(err, store.ErrStaleStatus):
			// The job already reached a terminal state on an earlier
			// delivery; the task is a leftover to discard.
			log.Debug("job already terminal, discarding task")
			p.ack(ctx, task, log)
			return
		case errors.Is(err, store.ErrJobNotFound):
			// Record was compensated away after enqueue; nothing to do.
			log.Warn("job record missing, discarding task")
			p.ack(ctx, task, log)
			return
		default:
			log.Error("failed to mark job processing", slog.String("error", err.Error()))
			p.nack(ctx, task, err, log)
			return
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		// Shutdown while queued behind the rate cap; release the task for
		// redelivery without burning the attempt's outcome.
		p.nack(ctx, task, err, log)
		return
	}

	content, err := p.generator.Generate(ctx, task.Prompt, task.ContentType)
	if err != nil {
		log.Warn("generation failed", slog.String("error", err.Error()))
		p.nack(ctx, task, err, log)
		return
	}

	completedAt := time.Now().UTC()
	if err := p.jobs.Complete(ctx, task.JobID, content, completedAt); err != nil {
		if errors.Is(err, store.ErrStaleStatus) || errors.Is(err, store.ErrJobNotFound) {
			log.Debug("job finalized elsewhere, discarding task")
			p.ack(ctx, task, log)
			return
		}
		log.Error("failed to finalize job", slog.String("error", err.Error()))
		p.nack(ctx, task, err, log)
		return
	}

	p.publish(ctx, task, content, completedAt, log)
	p.ack(ctx, task, log)

	log.Info("task completed", slog.Int("content_length", len(content)))
}

// publish emits the completion event. Publishing is best-effort: a failure
// here is logged and absorbed, since the record is already durable and
// polling remains the authoritative path.
func (p *Pool) publish(ctx context.Context, task *queue.Task, content string, completedAt time.Time, log *slog.Logger) {
	event := events.JobCompletedEvent{
		UserID:           task.UserID,
		JobID:            task.JobID,
		Status:           domain.JobStatusCompleted,
		GeneratedContent: content,
		CompletedAt:      completedAt,
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		log.Warn("completion event not published", slog.String("error", err.Error()))
	}
}

// ack removes the task from the queue, logging on failure: an un-acked task
// is redelivered after its lease expires and discarded by the status guards.
func (p *Pool) ack(ctx context.Context, task *queue.Task, log *slog.Logger) {
	if err := p.queue.Ack(ctx, task.JobID); err != nil && !errors.Is(err, queue.ErrTaskNotFound) {
		log.Error("failed to ack task", slog.String("error", err.Error()))
	}
}

// nack settles a failed attempt with the queue. When the retry budget is
// exhausted the job record is finalized as errored with the failure reason.
func (p *Pool) nack(ctx context.Context, task *queue.Task, taskErr error, log *slog.Logger) {
	exhausted, err := p.queue.Nack(ctx, task.JobID, taskErr.Error())
	if err != nil {
		if errors.Is(err, queue.ErrTaskNotFound) {
			log.Debug("task settled elsewhere")
			return
		}
		// Leave the lease to expire; the task will be redelivered.
		log.Error("failed to nack task", slog.String("error", err.Error()))
		return
	}
	if !exhausted {
		return
	}

	log.Warn("task failed", slog.String("error", taskErr.Error()))

	if err := p.jobs.Fail(ctx, task.JobID, taskErr.Error()); err != nil &&
		!errors.Is(err, store.ErrStaleStatus) && !errors.Is(err, store.ErrJobNotFound) {
		log.Error("failed to record job error", slog.String("error", err.Error()))
	}
}
