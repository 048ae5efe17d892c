// Package events defines the completion event bridge between worker
// processes and front-facing processes. The bridge is deliberately
// best-effort: a missed event is absorbed silently because the job record
// remains the durable source of truth and clients fall back to polling.
package events
