package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/domain"
)

// Task is the ephemeral, queue-side unit of scheduled work corresponding to
// a job. It carries everything the worker needs so that task execution does
// not depend on reading the job record first. A task is destroyed on
// terminal success or on exhausting its retry attempts; its outcome is only
// durable once reflected in the job record.
type Task struct {
	// JobID is the tracking key: it correlates the task with its job
	// record and makes submission idempotent.
	JobID       uuid.UUID
	UserID      uuid.UUID
	Prompt      string
	ContentType domain.ContentType

	// Attempts is the number of executions so far, including the one that
	// delivered this task.
	Attempts int

	// ScheduledFor is the not-before time: the task is never delivered to
	// a consumer earlier than this.
	ScheduledFor time.Time

	// LastError is the failure message recorded by the most recent
	// unsuccessful attempt, if any.
	LastError string
}

// TaskQueue is the delayed task queue contract. Required semantics:
//
//   - a task is not delivered before its scheduled time;
//   - delivery is at-least-once: a consumer crash after Dequeue but before
//     Ack results in redelivery once the delivery lease expires;
//   - a Nack reschedules the task with exponential backoff up to a bounded
//     attempt count, and reports exhaustion to the consumer;
//   - Enqueue with a tracking key already present is rejected with
//     ErrDuplicateTask, preventing duplicate side effects from a retried
//     intake.
type TaskQueue interface {
	// Enqueue submits a task scheduled for task.ScheduledFor.
	Enqueue(ctx context.Context, task *Task) error

	// Dequeue leases up to max ready tasks for exclusive processing.
	// Returns an empty slice when nothing is ready.
	Dequeue(ctx context.Context, max int) ([]*Task, error)

	// Ack destroys a task after successful processing.
	Ack(ctx context.Context, jobID uuid.UUID) error

	// Nack records a failed attempt. If attempts remain, the task is
	// rescheduled after a backoff delay and exhausted is false. Otherwise
	// the task is destroyed and exhausted is true; the caller is then
	// responsible for recording the terminal outcome on the job record.
	Nack(ctx context.Context, jobID uuid.UUID, taskErr string) (exhausted bool, err error)
}

// RetryPolicy describes the bounded retry behavior applied to failed tasks.
type RetryPolicy struct {
	// MaxAttempts is the total number of executions allowed, first try
	// included.
	MaxAttempts int

	// BaseDelay is the backoff delay after the first failed attempt;
	// subsequent delays double.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the retry policy the service ships with:
// three attempts with exponential backoff starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Backoff returns the delay to apply before the next attempt, given the
// number of attempts already made. The first retry (attempts=1) waits
// BaseDelay, the second 2*BaseDelay, then 4*BaseDelay, and so on.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}

// Exhausted reports whether the given attempt count has consumed the
// policy's budget.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}
