package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"encoder-pipeline/core/logging"

	"github.com/google/uuid"
)

const CorrelationHeader = "X-Correlation-ID"

// CorrelationID tags each request with an id, taken from the incoming header
// or freshly generated, and logs its start and end.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := logging.WithCorrelationID(r.Context(), id)
		w.Header().Set(CorrelationHeader, id)

		slog.InfoContext(ctx, "request received", "method", r.Method, "path", r.URL.Path)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
