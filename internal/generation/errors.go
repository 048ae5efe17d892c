package generation

import "errors"

// Common errors returned by the generation package.
var (
	// ErrGenerationFailed is returned when content generation fails for a
	// general reason. The queue's retry policy governs what happens next.
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrEmptyResponse is returned when the collaborator responds with no
	// usable text. Treated as a failure: a completed job must carry
	// non-empty generated content.
	ErrEmptyResponse = errors.New("no content generated")

	// ErrInvalidConfig is returned when the generator configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
