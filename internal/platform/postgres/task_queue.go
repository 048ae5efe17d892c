package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/queue"
)

// TaskQueue implements the queue.TaskQueue contract on a PostgreSQL table.
//
// Delivery model: a task is eligible when its next_attempt_at has passed
// and it holds no live lease. Dequeue claims eligible rows with
// FOR UPDATE SKIP LOCKED so concurrent worker processes never double-claim,
// and stamps a lease; a consumer that crashes without acknowledging simply
// lets its lease expire, after which the task is delivered again
// (at-least-once). The job_id primary key makes submission idempotent.
type TaskQueue struct {
	db     *sql.DB
	policy queue.RetryPolicy
	lease  time.Duration
	logger *slog.Logger
}

// NewTaskQueue creates a Postgres-backed task queue. The retry policy
// bounds attempts and shapes backoff; lease is how long a delivered task
// stays invisible to other consumers.
func NewTaskQueue(db *sql.DB, policy queue.RetryPolicy, lease time.Duration, log *slog.Logger) *TaskQueue {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &TaskQueue{
		db:     db,
		policy: policy,
		lease:  lease,
		logger: log.With(slog.String("component", "task_queue")),
	}
}

// Ensure TaskQueue implements queue.TaskQueue.
var _ queue.TaskQueue = (*TaskQueue)(nil)

// Enqueue implements queue.TaskQueue.Enqueue.
func (q *TaskQueue) Enqueue(ctx context.Context, task *queue.Task) error {
	log := logger.FromContextOrDefault(ctx, q.logger)

	query := `
		INSERT INTO job_tasks (job_id, user_id, prompt, content_type,
			attempts, max_attempts, scheduled_for, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $6, $7)
	`
	_, err := q.db.ExecContext(ctx, query,
		task.JobID,
		task.UserID,
		task.Prompt,
		string(task.ContentType),
		q.policy.MaxAttempts,
		task.ScheduledFor.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("task already enqueued",
				slog.String("job_id", task.JobID.String()))
			return queue.ErrDuplicateTask
		}
		log.Error("failed to enqueue task",
			slog.String("error", err.Error()),
			slog.String("job_id", task.JobID.String()))
		return fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}

	log.Debug("task enqueued",
		slog.String("job_id", task.JobID.String()),
		slog.Time("scheduled_for", task.ScheduledFor))
	return nil
}

// Dequeue implements queue.TaskQueue.Dequeue. Claiming and leasing happen
// in one statement so there is no window in which two consumers can both
// see the same ready task.
func (q *TaskQueue) Dequeue(ctx context.Context, max int) ([]*queue.Task, error) {
	log := logger.FromContextOrDefault(ctx, q.logger)

	if max <= 0 {
		return []*queue.Task{}, nil
	}

	query := `
		WITH ready AS (
			SELECT job_id
			FROM job_tasks
			WHERE next_attempt_at <= now()
				AND (leased_until IS NULL OR leased_until < now())
			ORDER BY next_attempt_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE job_tasks t
		SET leased_until = now() + make_interval(secs => $2), attempts = t.attempts + 1
		FROM ready
		WHERE t.job_id = ready.job_id
		RETURNING t.job_id, t.user_id, t.prompt, t.content_type, t.attempts,
			t.scheduled_for, t.last_error
	`

	rows, err := q.db.QueryContext(ctx, query, max, q.lease.Seconds())
	if err != nil {
		log.Error("failed to dequeue tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*queue.Task{}
	for rows.Next() {
		var (
			task        queue.Task
			contentType string
			lastError   sql.NullString
		)
		err := rows.Scan(
			&task.JobID,
			&task.UserID,
			&task.Prompt,
			&contentType,
			&task.Attempts,
			&task.ScheduledFor,
			&lastError,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
		}
		task.ContentType = domain.ContentType(contentType)
		task.LastError = lastError.String
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}

	if len(tasks) > 0 {
		log.Debug("tasks leased", slog.Int("count", len(tasks)))
	}
	return tasks, nil
}

// Ack implements queue.TaskQueue.Ack.
func (q *TaskQueue) Ack(ctx context.Context, jobID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, q.logger)

	result, err := q.db.ExecContext(ctx,
		`DELETE FROM job_tasks WHERE job_id = $1`, jobID)
	if err != nil {
		log.Error("failed to ack task",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}
	if rowsAffected == 0 {
		return queue.ErrTaskNotFound
	}

	log.Debug("task acknowledged", slog.String("job_id", jobID.String()))
	return nil
}

// Nack implements queue.TaskQueue.Nack. The attempt that just failed was
// already counted at Dequeue time; when the budget is spent the task is
// destroyed and exhaustion reported, otherwise the lease is released and
// the next attempt scheduled with exponential backoff.
func (q *TaskQueue) Nack(ctx context.Context, jobID uuid.UUID, taskErr string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, q.logger)

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var attempts, maxAttempts int
	err = tx.QueryRowContext(ctx,
		`SELECT attempts, max_attempts FROM job_tasks WHERE job_id = $1 FOR UPDATE`,
		jobID).Scan(&attempts, &maxAttempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, queue.ErrTaskNotFound
		}
		return false, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}

	if attempts >= maxAttempts {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM job_tasks WHERE job_id = $1`, jobID); err != nil {
			return false, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
		}

		log.Warn("task retries exhausted",
			slog.String("job_id", jobID.String()),
			slog.Int("attempts", attempts),
			slog.String("task_error", taskErr))
		return true, nil
	}

	backoff := q.policy.Backoff(attempts)
	_, err = tx.ExecContext(ctx, `
		UPDATE job_tasks
		SET leased_until = NULL, last_error = $1, next_attempt_at = now() + make_interval(secs => $2)
		WHERE job_id = $3
	`, taskErr, backoff.Seconds(), jobID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", queue.ErrQueueFault, err)
	}

	log.Info("task rescheduled after failure",
		slog.String("job_id", jobID.String()),
		slog.Int("attempts", attempts),
		slog.Duration("backoff", backoff),
		slog.String("task_error", taskErr))
	return false, nil
}
