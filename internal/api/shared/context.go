package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"
)

// ContextKey is the private key type for request context values, so values
// set here cannot collide with other packages.
type ContextKey string

const (
	// UserIDContextKey carries the authenticated user's ID.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey carries the per-request trace ID.
	TraceIDKey ContextKey = "traceID"
)

// traceIDBytes is the entropy in a trace ID; rendered as 32 hex characters.
const traceIDBytes = 16

// SetTraceID stamps the context with a fresh trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID())
}

// GetTraceID returns the context's trace ID, or "" when the request never
// passed through the trace middleware.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// newTraceID draws a random trace ID, degrading to a clock-derived value if
// the system's entropy source fails. A repeated ID only weakens log
// correlation, so degrading beats refusing the request.
func newTraceID() string {
	b := make([]byte, traceIDBytes)
	if _, err := rand.Read(b); err != nil {
		slog.Error("failed to generate random trace ID", "error", err)
		now := time.Now()
		binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
		binary.BigEndian.PutUint64(b[8:], uint64(now.Unix()))
	}
	return hex.EncodeToString(b)
}
