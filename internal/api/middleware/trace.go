package middleware

import (
	"log/slog"
	"net/http"

	"github.com/draftforge/draftforge-api/internal/api/shared"
)

// traceIDHeader echoes the request's trace ID so clients can quote it when
// reporting problems.
const traceIDHeader = "X-Trace-Id"

// TraceMiddleware stamps each request with a trace ID, exposes it on the
// response, and logs the request start. Apply it ahead of anything that
// logs or writes error responses.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		w.Header().Set(traceIDHeader, traceID)

		slog.Debug("request started",
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
