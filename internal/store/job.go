package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/domain"
)

// JobStore defines the interface for job record persistence. The job record
// is the ground truth for job status: every terminal outcome must be
// reflected here regardless of what happens to the queue or the event
// bridge.
type JobStore interface {
	// Create saves a new job record. The job must be in status queued.
	// Returns ErrDuplicate if a job with the same ID already exists.
	Create(ctx context.Context, job *domain.Job) error

	// Delete removes a job record. Used by intake to compensate when the
	// matching task could not be enqueued; a record with no task would
	// otherwise be stuck in queued forever.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, jobID uuid.UUID) error

	// GetForUser retrieves a job scoped to its owning user.
	// Returns ErrJobNotFound if the job does not exist or belongs to a
	// different user, so that existence is not leaked across users.
	GetForUser(ctx context.Context, jobID, userID uuid.UUID) (*domain.Job, error)

	// ListForUser retrieves all jobs owned by the user, most recent first.
	// Returns an empty slice when the user has no jobs.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error)

	// MarkProcessing advances a queued job to processing. Redelivery of a
	// task whose job is already processing is a no-op. Returns
	// ErrStaleStatus if the job has already reached a terminal state, and
	// ErrJobNotFound if no such job exists.
	MarkProcessing(ctx context.Context, jobID uuid.UUID) error

	// Complete finalizes a processing job with its generated content and
	// completion time. The write is guarded on status so a duplicate
	// delivery can never regress a terminal state; ErrStaleStatus is
	// returned when the job was not in processing.
	Complete(ctx context.Context, jobID uuid.UUID, generatedContent string, completedAt time.Time) error

	// Fail finalizes a processing job with a terminal error message.
	// Guarded the same way as Complete.
	Fail(ctx context.Context, jobID uuid.UUID, errorMessage string) error
}
