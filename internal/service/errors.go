// Package service provides application-level services coordinating job
// records, the task queue, and the generation pipeline.
package service

import (
	"errors"
	"fmt"

	"github.com/draftforge/draftforge-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers use errors.Is to check for these; the API layer maps them to HTTP
// status codes.
var (
	// ErrJobNotFound indicates that the job does not exist or is not visible
	// to the requesting user. API layer should map this to HTTP 404.
	ErrJobNotFound = errors.New("job not found")

	// ErrSubmissionFailed indicates the job could not be handed to the queue
	// and the submission was rolled back. API layer should map this to
	// HTTP 500; the client may safely resubmit.
	ErrSubmissionFailed = errors.New("job submission failed")
)

// JobServiceError wraps errors from the job service with context.
type JobServiceError struct {
	// Operation is the operation that failed (e.g., "submit_job", "get_job")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for JobServiceError.
func (e *JobServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("job service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JobServiceError) Unwrap() error {
	return e.Err
}

// NewJobServiceError creates a new JobServiceError.
// It returns known sentinel errors directly without wrapping.
func NewJobServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrJobNotFound) {
		return ErrJobNotFound
	}
	if errors.Is(err, store.ErrJobNotFound) {
		return ErrJobNotFound
	}

	return &JobServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
