// Package api implements the HTTP surface: job intake and status endpoints,
// the authenticated WebSocket handshake, request/response models, and the
// mapping from internal errors to status codes.
package api
