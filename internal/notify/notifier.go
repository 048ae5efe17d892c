package notify

import (
	"context"
	"log/slog"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/store"
)

// PushMessage is the frame pushed to a connected client when one of their
// jobs completes. The event name matches the bridge channel.
type PushMessage struct {
	Event string                   `json:"event"`
	Data  events.JobCompletedEvent `json:"data"`
}

// Notifier fans bridge events out to connected clients. Delivery is
// best-effort end to end: an event for a user with no registered connection
// is dropped silently, and a failed write tears the connection down rather
// than retrying. Clients recover by polling the job record.
type Notifier struct {
	registry *Registry
	jobs     store.JobStore
	logger   *slog.Logger
}

// NewNotifier creates a notifier over the given registry. The job store
// backfills generated content for events that arrived without it.
func NewNotifier(registry *Registry, jobs store.JobStore, log *slog.Logger) *Notifier {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if jobs == nil {
		panic("jobs store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Notifier{
		registry: registry,
		jobs:     jobs,
		logger:   log.With(slog.String("component", "notifier")),
	}
}

// Run consumes the subscriber until the context is canceled, pushing each
// event to its user's connection.
func (n *Notifier) Run(ctx context.Context, subscriber events.Subscriber) error {
	return subscriber.Listen(ctx, n.HandleEvent)
}

// HandleEvent pushes a single completion event to the owning user, if
// connected. A completed event carrying no content was too large for the
// bridge; the content is read back from the job record before pushing.
func (n *Notifier) HandleEvent(ctx context.Context, event events.JobCompletedEvent) {
	conn, ok := n.registry.Get(event.UserID)
	if !ok {
		n.logger.Debug("no connection for user, dropping event",
			slog.String("user_id", event.UserID.String()),
			slog.String("job_id", event.JobID.String()))
		return
	}

	if event.Status == domain.JobStatusCompleted && event.GeneratedContent == "" {
		job, err := n.jobs.GetForUser(ctx, event.JobID, event.UserID)
		if err != nil {
			// The record is the authoritative copy; without it there is
			// nothing worth pushing. The client's poll will catch up.
			n.logger.Warn("failed to load content for completion event, dropping",
				slog.String("error", err.Error()),
				slog.String("user_id", event.UserID.String()),
				slog.String("job_id", event.JobID.String()))
			return
		}
		event.GeneratedContent = job.GeneratedContent
	}

	message := PushMessage{
		Event: events.JobCompletedChannel,
		Data:  event,
	}

	if err := conn.WriteJSON(message); err != nil {
		n.logger.Warn("failed to push event, dropping connection",
			slog.String("error", err.Error()),
			slog.String("user_id", event.UserID.String()),
			slog.String("job_id", event.JobID.String()))
		n.registry.Unregister(event.UserID, conn)
		if closeErr := conn.Close(); closeErr != nil {
			n.logger.Debug("failed to close connection",
				slog.String("error", closeErr.Error()))
		}
		return
	}

	n.logger.Debug("event pushed",
		slog.String("user_id", event.UserID.String()),
		slog.String("job_id", event.JobID.String()))
}
