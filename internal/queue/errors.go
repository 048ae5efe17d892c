package queue

import "errors"

// Common errors returned by task queue implementations.
var (
	// ErrDuplicateTask is returned when a task with the same tracking key
	// is already present in the queue. Intake treats this as success: the
	// work is already scheduled, so a retried submission has no extra
	// side effects.
	ErrDuplicateTask = errors.New("task already enqueued")

	// ErrTaskNotFound is returned when acknowledging or failing a task
	// that is no longer in the queue.
	ErrTaskNotFound = errors.New("task not found in queue")

	// ErrQueueFault is returned when the queue infrastructure itself
	// fails. On the intake path this is surfaced to the caller as a server
	// error rather than a false "queued" acknowledgment.
	ErrQueueFault = errors.New("task queue infrastructure failure")
)
