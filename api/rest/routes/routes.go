package routes

import (
	"log/slog"
	"net/http"

	"encoder-pipeline/api/rest/handlers"
	"encoder-pipeline/api/rest/middleware"

	"github.com/gorilla/mux"
)

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	EndpointPath  string
	Notifications handlers.NotificationService
	Jobs          handlers.JobReader
	Events        handlers.EventReader
	Metrics       handlers.MetricsSource
	Logger        *slog.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(middleware.CorrelationID)

	// SNS delivers every message type with POST
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications, logger)
	r.Handle(deps.EndpointPath, notificationHandler).Methods(http.MethodPost)

	jobHandler := handlers.NewJobHandler(deps.Jobs, deps.Events, logger)
	api := r.PathPrefix("/v1").Subrouter()

	// Job endpoints
	api.HandleFunc("/jobs", jobHandler.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}/events", jobHandler.GetJobEvents).Methods(http.MethodGet)

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.HandleFunc("/metrics", handlers.Metrics(deps.Metrics, logger)).Methods(http.MethodGet)
	}
}
