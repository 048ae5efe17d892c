package api

import (
	"time"

	"github.com/draftforge/draftforge-api/internal/domain"
)

// GenerateRequest represents the request body for submitting a generation job.
type GenerateRequest struct {
	Prompt      string `json:"prompt"      validate:"required,min=1"`
	ContentType string `json:"contentType" validate:"required"`
}

// GenerateAckResponse is the 202 acknowledgment for an accepted submission.
// The job has not run yet; the ack tells the client when it becomes eligible
// and when to expect a result.
type GenerateAckResponse struct {
	JobID                   string    `json:"jobId"`
	Status                  string    `json:"status"`
	ScheduledFor            time.Time `json:"scheduledFor"`
	EstimatedCompletionTime time.Time `json:"estimatedCompletionTime"`
	DelaySeconds            int       `json:"delaySeconds"`
	Message                 string    `json:"message"`
}

// JobResponse represents the status view of a job. Outcome fields are
// populated by status: generatedContent and completedAt only for completed
// jobs, error only for jobs that terminated in failure.
type JobResponse struct {
	JobID            string     `json:"jobId"`
	Status           string     `json:"status"`
	Prompt           string     `json:"prompt"`
	ContentType      string     `json:"contentType"`
	ScheduledFor     time.Time  `json:"scheduledFor"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	GeneratedContent string     `json:"generatedContent,omitempty"`
	Error            string     `json:"error,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// ListJobsResponse wraps the caller's job history, newest first.
type ListJobsResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// jobToResponse converts a domain.Job to its status view.
func jobToResponse(job *domain.Job) JobResponse {
	response := JobResponse{
		JobID:        job.ID.String(),
		Status:       string(job.Status),
		Prompt:       job.Prompt,
		ContentType:  job.ContentType.String(),
		ScheduledFor: job.ScheduledFor,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		response.GeneratedContent = job.GeneratedContent
		response.CompletedAt = job.CompletedAt
	case domain.JobStatusError, domain.JobStatusFailed:
		response.Error = job.ErrorMessage
	}

	return response
}
