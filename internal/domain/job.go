package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a generation job.
type JobStatus string

// Possible job status values.
//
// JobStatusFailed is part of the persisted enumeration for compatibility but
// is never produced by any transition in this codebase: runtime failures,
// including retry exhaustion, terminate in JobStatusError.
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusError      JobStatus = "error"
)

// Job is the durable record of a requested content generation and its
// outcome. It is created by the intake path with status queued and mutated
// only by the worker afterwards. The record is the ground truth for job
// status; queue and event-bridge state are ephemeral.
type Job struct {
	ID               uuid.UUID   `json:"jobId"`
	UserID           uuid.UUID   `json:"userId"`
	Prompt           string      `json:"prompt"`
	ContentType      ContentType `json:"contentType"`
	Status           JobStatus   `json:"status"`
	ScheduledFor     time.Time   `json:"scheduledFor"`
	GeneratedContent string      `json:"generatedContent,omitempty"`
	ErrorMessage     string      `json:"error,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

// NewJob creates a new Job for the given user, prompt and content type,
// scheduled to become eligible for execution after the given delay.
// It generates the job ID, sets status to queued and stamps the timestamps.
// Returns an error if validation fails.
func NewJob(userID uuid.UUID, prompt string, contentType ContentType, delay time.Duration) (*Job, error) {
	now := time.Now().UTC()

	job := &Job{
		ID:           uuid.New(),
		UserID:       userID,
		Prompt:       prompt,
		ContentType:  contentType,
		Status:       JobStatusQueued,
		ScheduledFor: now.Add(delay),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks the Job's field invariants: identifiers present, prompt
// non-empty, content type and status within their closed sets, and the
// content/error fields consistent with the status.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.UserID == uuid.Nil {
		return ErrEmptyJobUserID
	}

	if j.Prompt == "" {
		return ErrEmptyPrompt
	}

	if !j.ContentType.IsValid() {
		return ErrInvalidContentType
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// IsTerminal reports whether the job has reached a state that no transition
// may leave.
func (j *Job) IsTerminal() bool {
	return isTerminalStatus(j.Status)
}

// CanTransitionTo reports whether moving the job to the given status would
// respect the state machine: queued → processing → {completed | error},
// strictly forward, terminal states absorbing. Re-asserting the current
// status is permitted so that at-least-once redelivery stays a no-op.
func (j *Job) CanTransitionTo(next JobStatus) bool {
	if !isValidJobStatus(next) {
		return false
	}

	if next == j.Status {
		return true
	}

	switch j.Status {
	case JobStatusQueued:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusError
	default:
		// completed, error and the reserved failed value are absorbing.
		return false
	}
}

// MarkProcessing transitions the job into the processing state.
func (j *Job) MarkProcessing() error {
	return j.transition(JobStatusProcessing)
}

// Complete transitions the job into the completed state, recording the
// generated content and the completion time.
func (j *Job) Complete(generatedContent string, completedAt time.Time) error {
	if err := j.transition(JobStatusCompleted); err != nil {
		return err
	}

	completedAt = completedAt.UTC()
	j.GeneratedContent = generatedContent
	j.ErrorMessage = ""
	j.CompletedAt = &completedAt
	return nil
}

// Fail transitions the job into the terminal error state, recording the
// failure reason.
func (j *Job) Fail(errorMessage string) error {
	if err := j.transition(JobStatusError); err != nil {
		return err
	}

	j.ErrorMessage = errorMessage
	j.GeneratedContent = ""
	return nil
}

func (j *Job) transition(next JobStatus) error {
	if !j.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	j.Status = next
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted,
		JobStatusFailed, JobStatusError:
		return true
	default:
		return false
	}
}

func isTerminalStatus(status JobStatus) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusError:
		return true
	default:
		return false
	}
}
