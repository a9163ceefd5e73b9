package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"encoder-pipeline/api/rest/handlers"
	"encoder-pipeline/core/models"
	"encoder-pipeline/core/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJobs struct {
	jobs       map[string]*models.EncodeJob
	activeOnly bool
	limit      int
}

func (s *stubJobs) GetJob(ctx context.Context, id string) (*models.EncodeJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrJobNotFound, id)
	}
	return job, nil
}

func (s *stubJobs) ListJobs(ctx context.Context, activeOnly bool, limit int) ([]*models.EncodeJob, error) {
	s.activeOnly = activeOnly
	s.limit = limit
	var out []*models.EncodeJob
	for _, job := range s.jobs {
		if !activeOnly || job.State.IsActive() {
			out = append(out, job)
		}
	}
	return out, nil
}

type stubEvents struct {
	events []models.JobEvent
}

func (s *stubEvents) GetJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error) {
	return s.events, nil
}

func newJobRouter(jobs *stubJobs, events *stubEvents) *mux.Router {
	h := handlers.NewJobHandler(jobs, events, slog.Default())
	r := mux.NewRouter()
	r.HandleFunc("/v1/jobs", h.ListJobs).Methods(http.MethodGet)
	r.HandleFunc("/v1/jobs/{id}", h.GetJob).Methods(http.MethodGet)
	r.HandleFunc("/v1/jobs/{id}/events", h.GetJobEvents).Methods(http.MethodGet)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func testJobs() *stubJobs {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	return &stubJobs{jobs: map[string]*models.EncodeJob{
		"job-1": {ID: "job-1", Owner: models.OwnerRef{Kind: "video", ID: "42"}, State: models.JobStateComplete, Message: "Success", CreatedAt: now, LastModifiedAt: now},
		"job-2": {ID: "job-2", State: models.JobStateProgressing, Message: "Progress", CreatedAt: now, LastModifiedAt: now},
	}}
}

func TestJobHandler_GetJob(t *testing.T) {
	w := get(newJobRouter(testJobs(), &stubEvents{}), "/v1/jobs/job-1")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "job-1", body["id"])
	assert.Equal(t, "Complete", body["state"])
	assert.Equal(t, "Success", body["message"])
	assert.Equal(t, "video", body["owner_kind"])
}

func TestJobHandler_GetJobNotFound(t *testing.T) {
	w := get(newJobRouter(testJobs(), &stubEvents{}), "/v1/jobs/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobHandler_ListActive(t *testing.T) {
	jobs := testJobs()
	w := get(newJobRouter(jobs, &stubEvents{}), "/v1/jobs?active=true&limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "job-2", body.Items[0]["id"])
	assert.True(t, jobs.activeOnly)
	assert.Equal(t, 10, jobs.limit)
}

func TestJobHandler_ListInvalidLimit(t *testing.T) {
	w := get(newJobRouter(testJobs(), &stubEvents{}), "/v1/jobs?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandler_GetJobEvents(t *testing.T) {
	from := models.JobStateProgressing
	events := &stubEvents{events: []models.JobEvent{
		{ID: 2, JobID: "job-1", FromState: &from, ToState: models.JobStateComplete, Message: "Success"},
		{ID: 1, JobID: "job-1", ToState: models.JobStateProgressing, Message: "Progress"},
	}}

	w := get(newJobRouter(testJobs(), events), "/v1/jobs/job-1/events")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Progressing", body.Items[0]["from_state"])
	assert.Equal(t, "Complete", body.Items[0]["to_state"])
	assert.NotContains(t, body.Items[1], "from_state")
}

func TestJobHandler_EventsForMissingJob(t *testing.T) {
	w := get(newJobRouter(testJobs(), &stubEvents{}), "/v1/jobs/nope/events")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
