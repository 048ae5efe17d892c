package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/queue"
)

// These tests need a real database: delivery timing, leasing, and backoff
// live in SQL. Set FORGE_TEST_DATABASE_URL to run them; they share the
// job_tasks table, so they do not run in parallel.

func newQueueTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("FORGE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FORGE_TEST_DATABASE_URL not set, skipping database test")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, MigrateUp(db))

	_, err = db.Exec(`DELETE FROM job_tasks`)
	require.NoError(t, err)

	return db
}

func queueTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readyTask() *queue.Task {
	return &queue.Task{
		JobID:        uuid.New(),
		UserID:       uuid.New(),
		Prompt:       "eco bottle",
		ContentType:  domain.ContentTypeProductDescription,
		ScheduledFor: time.Now().UTC().Add(-time.Second),
	}
}

func TestTaskQueueDequeueHonorsSchedule(t *testing.T) {
	db := newQueueTestDB(t)
	q := NewTaskQueue(db, queue.DefaultRetryPolicy(), 2*time.Minute, queueTestLogger())
	ctx := context.Background()

	future := readyTask()
	future.ScheduledFor = time.Now().UTC().Add(time.Hour)
	ready := readyTask()

	require.NoError(t, q.Enqueue(ctx, future))
	require.NoError(t, q.Enqueue(ctx, ready))

	tasks, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1, "a task must not be delivered before its scheduled time")
	assert.Equal(t, ready.JobID, tasks[0].JobID)
	assert.Equal(t, 1, tasks[0].Attempts)
}

func TestTaskQueueEnqueueDuplicate(t *testing.T) {
	db := newQueueTestDB(t)
	q := NewTaskQueue(db, queue.DefaultRetryPolicy(), 2*time.Minute, queueTestLogger())
	ctx := context.Background()

	task := readyTask()
	require.NoError(t, q.Enqueue(ctx, task))

	err := q.Enqueue(ctx, task)
	assert.ErrorIs(t, err, queue.ErrDuplicateTask)
}

func TestTaskQueueLease(t *testing.T) {
	db := newQueueTestDB(t)
	lease := 300 * time.Millisecond
	q := NewTaskQueue(db, queue.DefaultRetryPolicy(), lease, queueTestLogger())
	ctx := context.Background()

	task := readyTask()
	require.NoError(t, q.Enqueue(ctx, task))

	first, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Leased, so invisible to other consumers.
	second, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, second)

	// A consumer that died without acking lets the lease lapse, after
	// which the task is delivered again with the attempt counted.
	time.Sleep(lease + 100*time.Millisecond)

	redelivered, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, redelivered, 1)
	assert.Equal(t, task.JobID, redelivered[0].JobID)
	assert.Equal(t, 2, redelivered[0].Attempts)
}

func TestTaskQueueAck(t *testing.T) {
	db := newQueueTestDB(t)
	q := NewTaskQueue(db, queue.DefaultRetryPolicy(), 2*time.Minute, queueTestLogger())
	ctx := context.Background()

	task := readyTask()
	require.NoError(t, q.Enqueue(ctx, task))

	tasks, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, q.Ack(ctx, task.JobID))

	// The task is destroyed, not redeliverable.
	remaining, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.ErrorIs(t, q.Ack(ctx, task.JobID), queue.ErrTaskNotFound)
}

func TestTaskQueueNackBackoffAndExhaustion(t *testing.T) {
	db := newQueueTestDB(t)
	policy := queue.RetryPolicy{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond}
	q := NewTaskQueue(db, policy, 2*time.Minute, queueTestLogger())
	ctx := context.Background()

	task := readyTask()
	require.NoError(t, q.Enqueue(ctx, task))

	tasks, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	exhausted, err := q.Nack(ctx, task.JobID, "upstream timeout")
	require.NoError(t, err)
	assert.False(t, exhausted)

	// Backoff holds the task out of reach until the delay passes.
	early, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, early, "a nacked task must wait out its backoff")

	time.Sleep(policy.BaseDelay + 200*time.Millisecond)

	retried, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, retried, 1)
	assert.Equal(t, 2, retried[0].Attempts)
	assert.Equal(t, "upstream timeout", retried[0].LastError)

	// The budget is spent: the nack reports exhaustion and destroys the
	// task, leaving the terminal record write to the caller.
	exhausted, err = q.Nack(ctx, task.JobID, "upstream timeout")
	require.NoError(t, err)
	assert.True(t, exhausted)

	gone, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, gone)
}
