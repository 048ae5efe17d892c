package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/store"
)

// JobStore implements the store.JobStore interface using a PostgreSQL
// database as the storage backend.
type JobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewJobStore creates a new PostgreSQL implementation of store.JobStore.
// The database handle is initialized and managed by the caller. If logger
// is nil, the process default is used.
func NewJobStore(db store.DBTX, log *slog.Logger) *JobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &JobStore{
		db:     db,
		logger: log.With(slog.String("component", "job_store")),
	}
}

// Ensure JobStore implements store.JobStore.
var _ store.JobStore = (*JobStore)(nil)

// Create implements store.JobStore.Create.
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	query := `
		INSERT INTO jobs (job_id, user_id, prompt, content_type, status,
			scheduled_for, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.Prompt,
		string(job.ContentType),
		string(job.Status),
		job.ScheduledFor,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()),
			slog.String("user_id", job.UserID.String()))
		return MapError(err)
	}

	log.Info("job created",
		slog.String("job_id", job.ID.String()),
		slog.String("user_id", job.UserID.String()),
		slog.String("content_type", job.ContentType.String()))
	return nil
}

// Delete implements store.JobStore.Delete.
func (s *JobStore) Delete(ctx context.Context, jobID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID)
	if err != nil {
		log.Error("failed to delete job",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rowsAffected == 0 {
		return store.ErrJobNotFound
	}

	log.Info("job deleted", slog.String("job_id", jobID.String()))
	return nil
}

// GetForUser implements store.JobStore.GetForUser. The user scoping is part
// of the query itself, so a job owned by a different user is reported as
// not found rather than forbidden.
func (s *JobStore) GetForUser(ctx context.Context, jobID, userID uuid.UUID) (*domain.Job, error) {
	query := `
		SELECT job_id, user_id, prompt, content_type, status, scheduled_for,
			generated_content, error_message, created_at, updated_at, completed_at
		FROM jobs
		WHERE job_id = $1 AND user_id = $2
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, jobID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}

	return job, nil
}

// ListForUser implements store.JobStore.ListForUser.
func (s *JobStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT job_id, user_id, prompt, content_type, status, scheduled_for,
			generated_content, error_message, created_at, updated_at, completed_at
		FROM jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list jobs",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	jobs := []*domain.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, MapError(err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return jobs, nil
}

// MarkProcessing implements store.JobStore.MarkProcessing. The update is
// guarded on status so that a redelivered task whose job is already
// processing is a no-op, and a terminal job is never pulled backward.
func (s *JobStore) MarkProcessing(ctx context.Context, jobID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, updated_at = $2
		WHERE job_id = $3 AND status IN ($4, $1)
	`

	result, err := s.db.ExecContext(ctx, query,
		string(domain.JobStatusProcessing),
		time.Now().UTC(),
		jobID,
		string(domain.JobStatusQueued),
	)
	if err != nil {
		log.Error("failed to mark job processing",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return MapError(err)
	}

	return s.checkGuardedUpdate(ctx, result, jobID)
}

// Complete implements store.JobStore.Complete. Guarded on processing so a
// duplicate delivery can never regress a terminal state.
func (s *JobStore) Complete(ctx context.Context, jobID uuid.UUID, generatedContent string, completedAt time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, generated_content = $2, error_message = NULL,
			completed_at = $3, updated_at = $4
		WHERE job_id = $5 AND status = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		string(domain.JobStatusCompleted),
		generatedContent,
		completedAt.UTC(),
		time.Now().UTC(),
		jobID,
		string(domain.JobStatusProcessing),
	)
	if err != nil {
		log.Error("failed to complete job",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return MapError(err)
	}

	if err := s.checkGuardedUpdate(ctx, result, jobID); err != nil {
		return err
	}

	log.Info("job completed",
		slog.String("job_id", jobID.String()),
		slog.Int("content_length", len(generatedContent)))
	return nil
}

// Fail implements store.JobStore.Fail.
func (s *JobStore) Fail(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, generated_content = NULL, updated_at = $3
		WHERE job_id = $4 AND status = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		string(domain.JobStatusError),
		errorMessage,
		time.Now().UTC(),
		jobID,
		string(domain.JobStatusProcessing),
	)
	if err != nil {
		log.Error("failed to mark job errored",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return MapError(err)
	}

	if err := s.checkGuardedUpdate(ctx, result, jobID); err != nil {
		return err
	}

	log.Warn("job terminated with error",
		slog.String("job_id", jobID.String()),
		slog.String("job_error", errorMessage))
	return nil
}

// checkGuardedUpdate distinguishes "no such job" from "job not in the
// expected status" when a guarded update matched nothing.
func (s *JobStore) checkGuardedUpdate(ctx context.Context, result sql.Result, jobID uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE job_id = $1)`, jobID).Scan(&exists)
	if err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrJobNotFound
	}
	return store.ErrStaleStatus
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job              domain.Job
		contentType      string
		status           string
		generatedContent sql.NullString
		errorMessage     sql.NullString
		completedAt      sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Prompt,
		&contentType,
		&status,
		&job.ScheduledFor,
		&generatedContent,
		&errorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.ContentType = domain.ContentType(contentType)
	job.Status = domain.JobStatus(status)
	job.GeneratedContent = generatedContent.String
	job.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	return &job, nil
}
