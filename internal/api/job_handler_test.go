package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/service"
)

// mockJobService is a hand-rolled service.JobService with overridable
// behavior.
type mockJobService struct {
	SubmitJobFn func(ctx context.Context, userID uuid.UUID, prompt string, contentType domain.ContentType) (*domain.Job, error)
	GetJobFn    func(ctx context.Context, userID, jobID uuid.UUID) (*domain.Job, error)
	ListJobsFn  func(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error)
}

func (m *mockJobService) SubmitJob(ctx context.Context, userID uuid.UUID, prompt string, contentType domain.ContentType) (*domain.Job, error) {
	if m.SubmitJobFn != nil {
		return m.SubmitJobFn(ctx, userID, prompt, contentType)
	}
	return nil, nil
}

func (m *mockJobService) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*domain.Job, error) {
	if m.GetJobFn != nil {
		return m.GetJobFn(ctx, userID, jobID)
	}
	return nil, nil
}

func (m *mockJobService) ListJobs(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error) {
	if m.ListJobsFn != nil {
		return m.ListJobsFn(ctx, userID)
	}
	return nil, nil
}

const (
	testDelay     = time.Minute
	testAllowance = 30 * time.Second
)

// authedRequest builds a request carrying an authenticated user ID, the way
// the auth middleware would.
func authedRequest(t *testing.T, method, target string, body []byte, userID uuid.UUID) *http.Request {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	t.Run("accepts a valid submission", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		var submitted *domain.Job
		svc := &mockJobService{
			SubmitJobFn: func(ctx context.Context, uid uuid.UUID, prompt string, contentType domain.ContentType) (*domain.Job, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, "eco bottle", prompt)
				assert.Equal(t, domain.ContentTypeProductDescription, contentType)

				job, err := domain.NewJob(uid, prompt, contentType, testDelay)
				require.NoError(t, err)
				submitted = job
				return job, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		body, err := json.Marshal(GenerateRequest{
			Prompt:      "eco bottle",
			ContentType: string(domain.ContentTypeProductDescription),
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.GenerateContent(rec, authedRequest(t, http.MethodPost, "/api/generate", body, userID))

		require.Equal(t, http.StatusAccepted, rec.Code)

		var ack GenerateAckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
		assert.Equal(t, submitted.ID.String(), ack.JobID)
		assert.Equal(t, string(domain.JobStatusQueued), ack.Status)
		assert.Equal(t, int(testDelay.Seconds()), ack.DelaySeconds)
		assert.True(t, ack.ScheduledFor.Equal(submitted.ScheduledFor))
		assert.True(t, ack.EstimatedCompletionTime.Equal(submitted.ScheduledFor.Add(testAllowance)))
		assert.NotEmpty(t, ack.Message)
	})

	t.Run("rejects an unauthenticated request", func(t *testing.T) {
		t.Parallel()

		called := false
		svc := &mockJobService{
			SubmitJobFn: func(ctx context.Context, userID uuid.UUID, prompt string, contentType domain.ContentType) (*domain.Job, error) {
				called = true
				return nil, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		handler.GenerateContent(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("rejects a missing prompt", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{}, testDelay, testAllowance)

		body := []byte(`{"contentType": "Blog Post Outline"}`)
		rec := httptest.NewRecorder()
		handler.GenerateContent(rec, authedRequest(t, http.MethodPost, "/api/generate", body, uuid.New()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an unknown content type", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{}, testDelay, testAllowance)

		body := []byte(`{"prompt": "a prompt", "contentType": "sonnet"}`)
		rec := httptest.NewRecorder()
		handler.GenerateContent(rec, authedRequest(t, http.MethodPost, "/api/generate", body, uuid.New()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var errResp shared.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, "Invalid content type", errResp.Error)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{}, testDelay, testAllowance)

		rec := httptest.NewRecorder()
		handler.GenerateContent(rec, authedRequest(t, http.MethodPost, "/api/generate", []byte("{"), uuid.New()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps submission failure to 500 without leaking detail", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			SubmitJobFn: func(ctx context.Context, userID uuid.UUID, prompt string, contentType domain.ContentType) (*domain.Job, error) {
				return nil, service.ErrSubmissionFailed
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		body := []byte(`{"prompt": "a prompt", "contentType": "Blog Post Outline"}`)
		rec := httptest.NewRecorder()
		handler.GenerateContent(rec, authedRequest(t, http.MethodPost, "/api/generate", body, uuid.New()))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "submission")
	})
}

// getJobRequest routes a request through chi so URL params resolve.
func getJobRequest(t *testing.T, handler *JobHandler, userID uuid.UUID, jobID string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/api/generate/{jobID}", handler.GetJob)

	req := authedRequest(t, http.MethodGet, fmt.Sprintf("/api/generate/%s", jobID), nil, userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetJob(t *testing.T) {
	t.Parallel()

	t.Run("returns a completed job with its content", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		job, err := domain.NewJob(userID, "eco bottle", domain.ContentTypeProductDescription, testDelay)
		require.NoError(t, err)
		require.NoError(t, job.MarkProcessing())
		require.NoError(t, job.Complete("generated text", time.Now().UTC()))

		svc := &mockJobService{
			GetJobFn: func(ctx context.Context, uid, jobID uuid.UUID) (*domain.Job, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, job.ID, jobID)
				return job, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		rec := getJobRequest(t, handler, userID, job.ID.String())
		require.Equal(t, http.StatusOK, rec.Code)

		var view JobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, job.ID.String(), view.JobID)
		assert.Equal(t, string(domain.JobStatusCompleted), view.Status)
		assert.Equal(t, "generated text", view.GeneratedContent)
		require.NotNil(t, view.CompletedAt)
		assert.Empty(t, view.Error)
	})

	t.Run("omits outcome fields for a pending job", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		job, err := domain.NewJob(userID, "eco bottle", domain.ContentTypeProductDescription, testDelay)
		require.NoError(t, err)

		svc := &mockJobService{
			GetJobFn: func(ctx context.Context, uid, jobID uuid.UUID) (*domain.Job, error) {
				return job, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		rec := getJobRequest(t, handler, userID, job.ID.String())
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.NotContains(t, body, "generatedContent")
		assert.NotContains(t, body, "completedAt")
		assert.NotContains(t, body, `"error"`)
	})

	t.Run("reports the error message for an errored job", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		job, err := domain.NewJob(userID, "eco bottle", domain.ContentTypeProductDescription, testDelay)
		require.NoError(t, err)
		require.NoError(t, job.MarkProcessing())
		require.NoError(t, job.Fail("upstream timeout"))

		svc := &mockJobService{
			GetJobFn: func(ctx context.Context, uid, jobID uuid.UUID) (*domain.Job, error) {
				return job, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		rec := getJobRequest(t, handler, userID, job.ID.String())
		require.Equal(t, http.StatusOK, rec.Code)

		var view JobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, string(domain.JobStatusError), view.Status)
		assert.Equal(t, "upstream timeout", view.Error)
		assert.Empty(t, view.GeneratedContent)
	})

	t.Run("hides another user's job behind 404", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			GetJobFn: func(ctx context.Context, uid, jobID uuid.UUID) (*domain.Job, error) {
				return nil, service.ErrJobNotFound
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		rec := getJobRequest(t, handler, uuid.New(), uuid.New().String())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("treats a malformed job ID as not found", func(t *testing.T) {
		t.Parallel()

		called := false
		svc := &mockJobService{
			GetJobFn: func(ctx context.Context, uid, jobID uuid.UUID) (*domain.Job, error) {
				called = true
				return nil, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		rec := getJobRequest(t, handler, uuid.New(), "not-a-uuid")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.False(t, called)
	})
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	t.Run("returns the user's jobs with a count", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		first, err := domain.NewJob(userID, "newest", domain.ContentTypeBlogPostOutline, testDelay)
		require.NoError(t, err)
		second, err := domain.NewJob(userID, "older", domain.ContentTypeSocialMediaCaption, testDelay)
		require.NoError(t, err)

		svc := &mockJobService{
			ListJobsFn: func(ctx context.Context, uid uuid.UUID) ([]*domain.Job, error) {
				assert.Equal(t, userID, uid)
				return []*domain.Job{first, second}, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		rec := httptest.NewRecorder()
		handler.ListJobs(rec, authedRequest(t, http.MethodGet, "/api/generate", nil, userID))

		require.Equal(t, http.StatusOK, rec.Code)

		var list ListJobsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 2, list.Count)
		require.Len(t, list.Jobs, 2)
		assert.Equal(t, "newest", list.Jobs[0].Prompt)
	})

	t.Run("returns an empty list for a new user", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			ListJobsFn: func(ctx context.Context, userID uuid.UUID) ([]*domain.Job, error) {
				return []*domain.Job{}, nil
			},
		}
		handler := NewJobHandler(svc, testDelay, testAllowance)

		rec := httptest.NewRecorder()
		handler.ListJobs(rec, authedRequest(t, http.MethodGet, "/api/generate", nil, uuid.New()))

		require.Equal(t, http.StatusOK, rec.Code)

		var list ListJobsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 0, list.Count)
		assert.NotNil(t, list.Jobs)
	})
}
