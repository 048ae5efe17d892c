package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/queue"
	"github.com/draftforge/draftforge-api/internal/store"
)

// JobService provides job-related operations: accepting submissions for
// deferred processing and serving status reads scoped to the owning user.
type JobService interface {
	// SubmitJob validates the request, persists a queued job record, and
	// hands a delayed task to the queue. The returned job reflects the
	// accepted submission; processing happens later, out of band.
	SubmitJob(
		ctx context.Context,
		userID uuid.UUID,
		prompt string,
		contentType domain.ContentType,
	) (*domain.Job, error)

	// GetJob retrieves a job by ID for the given user. A job owned by a
	// different user is reported as not found.
	GetJob(ctx context.Context, userID, jobID uuid.UUID) (*domain.Job, error)

	// ListJobs retrieves all of the user's jobs, newest first.
	ListJobs(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error)
}

// enqueue retry shape for transient queue faults during submission.
const (
	enqueueRetryBase = 100 * time.Millisecond
	enqueueRetryMax  = 2
)

// jobServiceImpl implements the JobService interface
type jobServiceImpl struct {
	jobStore        store.JobStore
	taskQueue       queue.TaskQueue
	submissionDelay time.Duration
	logger          *slog.Logger
}

// NewJobService creates a new JobService.
// It returns an error if any of the required dependencies are nil.
func NewJobService(
	jobStore store.JobStore,
	taskQueue queue.TaskQueue,
	submissionDelay time.Duration,
	logger *slog.Logger,
) (JobService, error) {
	if jobStore == nil {
		return nil, &JobServiceError{
			Operation: "create_service",
			Message:   "jobStore cannot be nil",
		}
	}
	if taskQueue == nil {
		return nil, &JobServiceError{
			Operation: "create_service",
			Message:   "taskQueue cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobStore:        jobStore,
		taskQueue:       taskQueue,
		submissionDelay: submissionDelay,
		logger:          logger.With("component", "job_service"),
	}, nil
}

// SubmitJob creates the job record and enqueues the delayed task. The two
// writes are deliberately not atomic: the record is the source of truth for
// status reads, so it is written first, and a failed enqueue compensates by
// deleting the record so the client can safely resubmit.
func (s *jobServiceImpl) SubmitJob(
	ctx context.Context,
	userID uuid.UUID,
	prompt string,
	contentType domain.ContentType,
) (*domain.Job, error) {
	job, err := domain.NewJob(userID, prompt, contentType, s.submissionDelay)
	if err != nil {
		s.logger.Warn("rejected job submission",
			"error", err,
			"user_id", userID)
		return nil, NewJobServiceError("submit_job", "invalid submission", err)
	}

	if err := s.jobStore.Create(ctx, job); err != nil {
		s.logger.Error("failed to persist job record",
			"error", err,
			"job_id", job.ID,
			"user_id", userID)
		return nil, NewJobServiceError("submit_job", "failed to save job", err)
	}

	task := &queue.Task{
		JobID:        job.ID,
		UserID:       job.UserID,
		Prompt:       job.Prompt,
		ContentType:  job.ContentType,
		ScheduledFor: job.ScheduledFor,
	}

	backoff := retry.WithMaxRetries(enqueueRetryMax, retry.NewExponential(enqueueRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.taskQueue.Enqueue(ctx, task)
		if err == nil {
			return nil
		}
		// An already-enqueued task means a previous attempt landed; the
		// submission as a whole succeeded.
		if errors.Is(err, queue.ErrDuplicateTask) {
			return nil
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		s.logger.Error("failed to enqueue job task, rolling back record",
			"error", err,
			"job_id", job.ID,
			"user_id", userID)

		if delErr := s.jobStore.Delete(ctx, job.ID); delErr != nil &&
			!errors.Is(delErr, store.ErrJobNotFound) {
			// The orphaned record stays queued forever; surface loudly.
			s.logger.Error("failed to roll back job record after enqueue failure",
				"error", delErr,
				"job_id", job.ID)
		}

		return nil, NewJobServiceError("submit_job", "failed to enqueue job task",
			errors.Join(ErrSubmissionFailed, err))
	}

	s.logger.Info("job submitted",
		"job_id", job.ID,
		"user_id", userID,
		"content_type", job.ContentType,
		"scheduled_for", job.ScheduledFor)

	return job, nil
}

// GetJob retrieves a job by ID scoped to the owning user.
func (s *jobServiceImpl) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobStore.GetForUser(ctx, jobID, userID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("failed to retrieve job",
			"error", err,
			"job_id", jobID,
			"user_id", userID)
		return nil, NewJobServiceError("get_job", "failed to retrieve job", err)
	}

	return job, nil
}

// ListJobs retrieves the user's job history, newest first.
func (s *jobServiceImpl) ListJobs(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error) {
	jobs, err := s.jobStore.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list jobs",
			"error", err,
			"user_id", userID)
		return nil, NewJobServiceError("list_jobs", "failed to list jobs", err)
	}

	return jobs, nil
}
