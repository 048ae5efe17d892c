// Package notify delivers completion events to connected clients. The
// registry tracks one live push connection per user, and the notifier
// bridges subscriber events onto those connections. Both are process-local:
// a user connected to a different instance is reached through that
// instance's own subscriber, never through shared state.
package notify
