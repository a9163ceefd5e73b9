package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeText(w, "OK")
}

// MetricsSource renders the Prometheus exposition text
type MetricsSource interface {
	GetPrometheusMetrics(ctx context.Context) (string, error)
}

// Metrics handles GET /metrics
func Metrics(source MetricsSource, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := source.GetPrometheusMetrics(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to collect metrics", "error", err)
			http.Error(w, "Failed to collect metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(body))
	}
}
