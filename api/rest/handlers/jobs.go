package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"encoder-pipeline/core/models"
	"encoder-pipeline/core/repository"

	"github.com/gorilla/mux"
)

// JobReader is the read side of the job repository
type JobReader interface {
	GetJob(ctx context.Context, id string) (*models.EncodeJob, error)
	ListJobs(ctx context.Context, activeOnly bool, limit int) ([]*models.EncodeJob, error)
}

// EventReader returns a job's recorded transitions
type EventReader interface {
	GetJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
	eventsLimit      = 100
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobRepo   JobReader
	eventRepo EventReader
	logger    *slog.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobRepo JobReader, eventRepo EventReader, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{
		jobRepo:   jobRepo,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

type jobResponse struct {
	ID         string    `json:"id"`
	OwnerKind  string    `json:"owner_kind,omitempty"`
	OwnerID    string    `json:"owner_id,omitempty"`
	State      string    `json:"state"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"last_modified"`
}

func toJobResponse(job *models.EncodeJob) jobResponse {
	return jobResponse{
		ID:         job.ID,
		OwnerKind:  job.Owner.Kind,
		OwnerID:    job.Owner.ID,
		State:      job.State.String(),
		Message:    job.Message,
		CreatedAt:  job.CreatedAt,
		ModifiedAt: job.LastModifiedAt,
	}
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, ok := h.loadJob(w, r, jobID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultListLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	activeOnly, _ := strconv.ParseBool(query.Get("active"))

	jobs, err := h.jobRepo.ListJobs(r.Context(), activeOnly, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list jobs", "error", err)
		http.Error(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}

	items := make([]jobResponse, len(jobs))
	for i, job := range jobs {
		items[i] = toJobResponse(job)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// GetJobEvents handles GET /v1/jobs/{id}/events
func (h *JobHandler) GetJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	if _, ok := h.loadJob(w, r, jobID); !ok {
		return
	}

	events, err := h.eventRepo.GetJobEvents(r.Context(), jobID, eventsLimit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch events", "job_id", jobID, "error", err)
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(events))
	for i, event := range events {
		item := map[string]interface{}{
			"at":       event.At,
			"to_state": event.ToState.String(),
			"message":  event.Message,
			"payload":  event.Payload,
		}
		if event.FromState != nil {
			item["from_state"] = event.FromState.String()
		}
		items[i] = item
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *JobHandler) loadJob(w http.ResponseWriter, r *http.Request, jobID string) (*models.EncodeJob, bool) {
	job, err := h.jobRepo.GetJob(r.Context(), jobID)
	if errors.Is(err, repository.ErrJobNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load job", "job_id", jobID, "error", err)
		http.Error(w, "Failed to load job", http.StatusInternalServerError)
		return nil, false
	}
	return job, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
