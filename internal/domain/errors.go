package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped with a more specific message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyJobID is returned when a job is missing its identifier.
	ErrEmptyJobID = errors.New("job ID cannot be empty")

	// ErrEmptyJobUserID is returned when a job has no owning user.
	ErrEmptyJobUserID = errors.New("job user ID cannot be empty")

	// ErrEmptyPrompt is returned when a job has no prompt text.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrInvalidContentType is returned when a content type is not one of
	// the supported values.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrInvalidJobStatus is returned when a job status is not a known value.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrInvalidTransition is returned when a status change would violate
	// the job state machine (for example, leaving a terminal state).
	ErrInvalidTransition = errors.New("invalid job status transition")
)
