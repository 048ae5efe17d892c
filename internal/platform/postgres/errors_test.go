package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/draftforge/draftforge-api/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, MapError(nil))
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		t.Parallel()

		err := MapError(fmt.Errorf("scan failed: %w", sql.ErrNoRows))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		t.Parallel()

		pgErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "job_tasks_pkey"}
		err := MapError(fmt.Errorf("insert failed: %w", pgErr))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("constraint violations map to invalid entity", func(t *testing.T) {
		t.Parallel()

		for _, code := range []string{foreignKeyViolationCode, checkViolationCode, notNullViolationCode} {
			pgErr := &pgconn.PgError{Code: code, ConstraintName: "jobs_status_check"}
			err := MapError(fmt.Errorf("write failed: %w", pgErr))
			assert.ErrorIs(t, err, store.ErrInvalidEntity, "code %s", code)
		}
	})

	t.Run("unrecognized errors pass through unchanged", func(t *testing.T) {
		t.Parallel()

		original := errors.New("connection reset")
		assert.Equal(t, original, MapError(original))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: uniqueViolationCode}
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", pgErr)))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
}
