package generation

import (
	"context"

	"github.com/draftforge/draftforge-api/internal/domain"
)

// Generator is the interface to the external text-generation collaborator.
// Implementations are expected to be safe for concurrent use: the worker
// pool invokes Generate from multiple goroutines, one per in-flight task.
//
// Generate returns the generated text for the prompt, steered by the
// content type's instruction template, or an error if the collaborator
// fails or produces an empty result. Implementations must honor context
// cancellation; a timed-out call is reported as an error and retried by the
// queue, never blocked on indefinitely.
type Generator interface {
	Generate(ctx context.Context, prompt string, contentType domain.ContentType) (string, error)
}
