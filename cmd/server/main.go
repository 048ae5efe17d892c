// Package main implements the front-facing DraftForge API process: job
// intake and status endpoints, the authenticated WebSocket push surface, and
// the completion-event subscriber.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server exited with error: %v", err)
	}
}
