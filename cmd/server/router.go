package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/draftforge/draftforge-api/internal/api"
	apiMiddleware "github.com/draftforge/draftforge-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	jobHandler := api.NewJobHandler(
		app.jobService,
		app.config.Queue.SubmissionDelay(),
		app.config.Queue.ProcessingAllowance(),
	)
	wsHandler := api.NewWSHandler(app.jwtService, app.registry, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/generate", jobHandler.GenerateContent)
			r.Get("/generate", jobHandler.ListJobs)
			r.Get("/generate/{jobID}", jobHandler.GetJob)
		})
	})

	// WebSocket handshake does its own bearer check so browser clients can
	// pass the token as a query parameter.
	r.Get("/ws", wsHandler.ServeWS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
