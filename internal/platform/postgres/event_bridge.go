package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/store"
)

// maxNotifyPayloadBytes stays under the server's NOTIFY payload limit of
// roughly 8000 bytes. Events larger than this are sent without their
// content; subscribers read it from the job record instead.
const maxNotifyPayloadBytes = 7500

// EventPublisher implements events.Publisher using pg_notify. Publishing is
// fire and forget: NOTIFY payloads are not persisted, so an event sent
// while no front-facing process is listening is simply gone. That is the
// contract; the job record stays authoritative.
type EventPublisher struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewEventPublisher creates a publisher that rides the caller's existing
// database handle; NOTIFY does not need a dedicated connection.
func NewEventPublisher(db store.DBTX, log *slog.Logger) *EventPublisher {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &EventPublisher{
		db:     db,
		logger: log.With(slog.String("component", "event_publisher")),
	}
}

// Ensure EventPublisher implements events.Publisher.
var _ events.Publisher = (*EventPublisher)(nil)

// Publish implements events.Publisher.Publish. Events whose payload would
// exceed the NOTIFY limit are published without their generated content so
// large outputs still produce a push.
func (p *EventPublisher) Publish(ctx context.Context, event events.JobCompletedEvent) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	if len(payload) > maxNotifyPayloadBytes {
		slim := event
		slim.GeneratedContent = ""
		if payload, err = slim.Marshal(); err != nil {
			return fmt.Errorf("failed to marshal completion event: %w", err)
		}
		p.logger.Debug("completion event published without content",
			slog.String("job_id", event.JobID.String()),
			slog.Int("content_length", len(event.GeneratedContent)))
	}

	_, err = p.db.ExecContext(ctx,
		`SELECT pg_notify($1, $2)`, events.JobCompletedChannel, string(payload))
	if err != nil {
		p.logger.Error("failed to publish completion event",
			slog.String("error", err.Error()),
			slog.String("job_id", event.JobID.String()))
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	p.logger.Debug("completion event published",
		slog.String("job_id", event.JobID.String()),
		slog.String("user_id", event.UserID.String()))
	return nil
}

// EventSubscriber implements events.Subscriber over a dedicated pgx
// connection, since LISTEN binds to a single session.
type EventSubscriber struct {
	connString string
	logger     *slog.Logger

	// reconnectDelay is how long to wait before re-establishing a dropped
	// listen connection.
	reconnectDelay time.Duration
}

// NewEventSubscriber creates a subscriber that will connect with the given
// connection string when Listen is called.
func NewEventSubscriber(connString string, log *slog.Logger) *EventSubscriber {
	if log == nil {
		log = slog.Default()
	}

	return &EventSubscriber{
		connString:     connString,
		logger:         log.With(slog.String("component", "event_subscriber")),
		reconnectDelay: 5 * time.Second,
	}
}

// Ensure EventSubscriber implements events.Subscriber.
var _ events.Subscriber = (*EventSubscriber)(nil)

// Listen implements events.Subscriber.Listen. It blocks until the context
// is canceled, dispatching each received event to the handler. A dropped
// connection is re-established after a short delay; events raised in the
// gap are lost, which the bridge contract allows.
func (s *EventSubscriber) Listen(ctx context.Context, handler events.Handler) error {
	for {
		if err := s.listenOnce(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("listen connection lost, reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("delay", s.reconnectDelay))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *EventSubscriber) listenOnce(ctx context.Context, handler events.Handler) error {
	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		return fmt.Errorf("failed to connect for LISTEN: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("failed to close listen connection",
				slog.String("error", err.Error()))
		}
	}()

	if _, err := conn.Exec(ctx, `LISTEN `+events.JobCompletedChannel); err != nil {
		return fmt.Errorf("failed to LISTEN on %s: %w", events.JobCompletedChannel, err)
	}

	s.logger.Info("subscribed to completion events",
		slog.String("channel", events.JobCompletedChannel))

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		event, err := events.UnmarshalJobCompletedEvent([]byte(notification.Payload))
		if err != nil {
			// A malformed payload is dropped, not fatal: polling remains
			// the authoritative path for the affected job.
			s.logger.Warn("dropping malformed completion event",
				slog.String("error", err.Error()))
			continue
		}

		handler(ctx, event)
	}
}
