// Package postgres implements the persistence interfaces on PostgreSQL:
// the job record store, the delayed task queue, and the NOTIFY/LISTEN
// completion event bridge. The job store and queue run over database/sql
// with the pgx stdlib driver; the bridge subscriber holds a dedicated pgx
// connection because LISTEN requires one.
package postgres
