package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/queue"
)

// mockJobStore is a hand-rolled store.JobStore with overridable behavior and
// call recording.
type mockJobStore struct {
	mu sync.Mutex

	CreateFn         func(ctx context.Context, job *domain.Job) error
	DeleteFn         func(ctx context.Context, jobID uuid.UUID) error
	GetForUserFn     func(ctx context.Context, jobID, userID uuid.UUID) (*domain.Job, error)
	ListForUserFn    func(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error)
	MarkProcessingFn func(ctx context.Context, jobID uuid.UUID) error
	CompleteFn       func(ctx context.Context, jobID uuid.UUID, content string, completedAt time.Time) error
	FailFn           func(ctx context.Context, jobID uuid.UUID, errorMessage string) error

	created []*domain.Job
	deleted []uuid.UUID
}

func (m *mockJobStore) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	m.created = append(m.created, job)
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	return nil
}

func (m *mockJobStore) Delete(ctx context.Context, jobID uuid.UUID) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, jobID)
	m.mu.Unlock()

	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, jobID)
	}
	return nil
}

func (m *mockJobStore) GetForUser(ctx context.Context, jobID, userID uuid.UUID) (*domain.Job, error) {
	if m.GetForUserFn != nil {
		return m.GetForUserFn(ctx, jobID, userID)
	}
	return nil, nil
}

func (m *mockJobStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error) {
	if m.ListForUserFn != nil {
		return m.ListForUserFn(ctx, userID)
	}
	return []*domain.Job{}, nil
}

func (m *mockJobStore) MarkProcessing(ctx context.Context, jobID uuid.UUID) error {
	if m.MarkProcessingFn != nil {
		return m.MarkProcessingFn(ctx, jobID)
	}
	return nil
}

func (m *mockJobStore) Complete(ctx context.Context, jobID uuid.UUID, content string, completedAt time.Time) error {
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, jobID, content, completedAt)
	}
	return nil
}

func (m *mockJobStore) Fail(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	if m.FailFn != nil {
		return m.FailFn(ctx, jobID, errorMessage)
	}
	return nil
}

func (m *mockJobStore) createdJobs() []*domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Job{}, m.created...)
}

func (m *mockJobStore) deletedIDs() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID{}, m.deleted...)
}

// mockTaskQueue is a hand-rolled queue.TaskQueue with overridable behavior
// and call recording.
type mockTaskQueue struct {
	mu sync.Mutex

	EnqueueFn func(ctx context.Context, task *queue.Task) error
	DequeueFn func(ctx context.Context, max int) ([]*queue.Task, error)
	AckFn     func(ctx context.Context, jobID uuid.UUID) error
	NackFn    func(ctx context.Context, jobID uuid.UUID, taskErr string) (bool, error)

	enqueued []*queue.Task
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *queue.Task) error {
	m.mu.Lock()
	m.enqueued = append(m.enqueued, task)
	m.mu.Unlock()

	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, task)
	}
	return nil
}

func (m *mockTaskQueue) Dequeue(ctx context.Context, max int) ([]*queue.Task, error) {
	if m.DequeueFn != nil {
		return m.DequeueFn(ctx, max)
	}
	return []*queue.Task{}, nil
}

func (m *mockTaskQueue) Ack(ctx context.Context, jobID uuid.UUID) error {
	if m.AckFn != nil {
		return m.AckFn(ctx, jobID)
	}
	return nil
}

func (m *mockTaskQueue) Nack(ctx context.Context, jobID uuid.UUID, taskErr string) (bool, error) {
	if m.NackFn != nil {
		return m.NackFn(ctx, jobID, taskErr)
	}
	return false, nil
}

func (m *mockTaskQueue) enqueuedTasks() []*queue.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Task{}, m.enqueued...)
}
