// Package worker implements the background worker pool that drains the
// delayed task queue, drives jobs through the generation pipeline, and
// finalizes their records.
package worker
