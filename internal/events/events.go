package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/domain"
)

// JobCompletedChannel is the well-known channel name both sides of the
// bridge agree on. It doubles as the name of the push event delivered to
// connected clients.
const JobCompletedChannel = "job_completed"

// JobCompletedEvent is the payload published by a worker immediately after
// a successful terminal write to the job record. It carries enough for the
// front-facing process to notify the owning user without a database read.
type JobCompletedEvent struct {
	UserID           uuid.UUID        `json:"userId"`
	JobID            uuid.UUID        `json:"jobId"`
	Status           domain.JobStatus `json:"status"`
	GeneratedContent string           `json:"generatedContent"`
	CompletedAt      time.Time        `json:"completedAt"`
}

// Marshal encodes the event for transport over the bridge.
func (e JobCompletedEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalJobCompletedEvent decodes a bridge payload.
func UnmarshalJobCompletedEvent(data []byte) (JobCompletedEvent, error) {
	var event JobCompletedEvent
	err := json.Unmarshal(data, &event)
	return event, err
}

// Publisher is the worker-side half of the bridge. Publish is fire and
// forget: implementations return an error for observability, but callers
// must not treat a publish failure as a job failure.
type Publisher interface {
	Publish(ctx context.Context, event JobCompletedEvent) error
}

// Handler receives events on the subscriber side.
type Handler func(ctx context.Context, event JobCompletedEvent)

// Subscriber is the front-facing half of the bridge. Listen blocks,
// invoking the handler for each received event, until the context is
// canceled. Events published while no subscriber is listening are lost by
// design.
type Subscriber interface {
	Listen(ctx context.Context, handler Handler) error
}
