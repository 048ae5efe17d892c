// Package queue defines the delayed task queue contract the core depends
// on: scheduling delay, at-least-once delivery, bounded retries with
// exponential backoff, and idempotent submission keyed by job ID. The
// Postgres-backed implementation lives in internal/platform/postgres.
package queue
