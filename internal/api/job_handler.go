package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/service"
)

// JobHandler handles job submission and status HTTP requests.
type JobHandler struct {
	jobService service.JobService
	delay      time.Duration
	allowance  time.Duration
	validator  *validator.Validate
}

// NewJobHandler creates a new JobHandler. The delay is the fixed submission
// delay echoed in the ack; the allowance is the processing time added to it
// for the estimated completion time.
func NewJobHandler(jobService service.JobService, delay, allowance time.Duration) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		delay:      delay,
		allowance:  allowance,
		validator:  validator.New(),
	}
}

// GenerateContent handles POST /api/generate requests. Acceptance is
// asynchronous: a 202 means the job record and its queue task are both
// durable, not that any generation has happened.
func (h *JobHandler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	contentType := domain.ContentType(req.ContentType)
	if !contentType.IsValid() {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid content type")
		return
	}

	job, err := h.jobService.SubmitJob(r.Context(), userID, req.Prompt, contentType)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateAckResponse{
		JobID:                   job.ID.String(),
		Status:                  string(job.Status),
		ScheduledFor:            job.ScheduledFor,
		EstimatedCompletionTime: job.ScheduledFor.Add(h.allowance),
		DelaySeconds:            int(h.delay.Seconds()),
		Message:                 "Content generation job queued",
	})
}

// GetJob handles GET /api/generate/{jobID} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	// A malformed ID gets the same answer as an unknown one.
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		return
	}

	job, err := h.jobService.GetJob(r.Context(), userID, jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// ListJobs handles GET /api/generate requests.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	jobs, err := h.jobService.ListJobs(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	views := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, jobToResponse(job))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListJobsResponse{
		Jobs:  views,
		Count: len(views),
	})
}
