package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/events"
)

// fakeDBTX captures statements so payload shaping can be asserted without a
// live database.
type fakeDBTX struct {
	queries []string
	args    [][]any
	execErr error
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

func (f *fakeDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return fakeResult{}, f.execErr
}

func (f *fakeDBTX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, nil
}

func (f *fakeDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (f *fakeDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func newCompletionEvent(content string) events.JobCompletedEvent {
	return events.JobCompletedEvent{
		UserID:           uuid.New(),
		JobID:            uuid.New(),
		Status:           domain.JobStatusCompleted,
		GeneratedContent: content,
		CompletedAt:      time.Now().UTC(),
	}
}

func TestEventPublisherPublish(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("small event carries its content", func(t *testing.T) {
		t.Parallel()

		db := &fakeDBTX{}
		publisher := NewEventPublisher(db, log)

		event := newCompletionEvent("a short result")
		require.NoError(t, publisher.Publish(context.Background(), event))

		require.Len(t, db.args, 1)
		require.Len(t, db.args[0], 2)
		assert.Equal(t, events.JobCompletedChannel, db.args[0][0])

		payload, ok := db.args[0][1].(string)
		require.True(t, ok)
		assert.Contains(t, payload, "a short result")

		decoded, err := events.UnmarshalJobCompletedEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, event.JobID, decoded.JobID)
	})

	t.Run("oversized event is sent without content", func(t *testing.T) {
		t.Parallel()

		db := &fakeDBTX{}
		publisher := NewEventPublisher(db, log)

		// Well past the NOTIFY payload limit.
		event := newCompletionEvent(strings.Repeat("x", 10_000))
		require.NoError(t, publisher.Publish(context.Background(), event))

		require.Len(t, db.args, 1)
		payload, ok := db.args[0][1].(string)
		require.True(t, ok)
		assert.Less(t, len(payload), maxNotifyPayloadBytes)

		decoded, err := events.UnmarshalJobCompletedEvent([]byte(payload))
		require.NoError(t, err)
		assert.Empty(t, decoded.GeneratedContent)
		assert.Equal(t, event.JobID, decoded.JobID)
		assert.Equal(t, event.UserID, decoded.UserID)
		assert.Equal(t, domain.JobStatusCompleted, decoded.Status)
	})
}
