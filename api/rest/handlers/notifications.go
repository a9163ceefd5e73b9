package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"encoder-pipeline/core/notification"
)

// NotificationService is what the webhook needs from core/notification
type NotificationService interface {
	ConfirmSubscription(ctx context.Context, env *notification.Envelope) error
	ProcessNotification(ctx context.Context, env *notification.Envelope) (*notification.Outcome, error)
}

// NotificationHandler receives Elastic Transcoder notifications delivered by
// SNS over HTTP.
type NotificationHandler struct {
	service NotificationService
	logger  *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service NotificationService, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{service: service, logger: logger}
}

// ServeHTTP handles POST on the configured endpoint path
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read notification body", "error", err)
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	// Panics are logged with the body that caused them, then left to
	// net/http.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(ctx, "panic while handling notification", "panic", rec, "body", string(body))
			panic(rec)
		}
	}()

	env, err := notification.ParseEnvelope(body)
	if err != nil {
		h.logger.WarnContext(ctx, "rejecting notification", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	switch env.Type {
	case notification.TypeSubscriptionConfirmation:
		if err := h.service.ConfirmSubscription(ctx, env); err != nil {
			h.fail(ctx, w, "failed to confirm subscription", err, body)
			return
		}
		writeText(w, "OK")

	case notification.TypeUnsubscribeConfirmation:
		h.logger.InfoContext(ctx, "sns subscription removed", "topic_arn", env.TopicARN)
		writeText(w, "OK")

	default:
		outcome, err := h.service.ProcessNotification(ctx, env)
		if err != nil {
			h.fail(ctx, w, "failed to process notification", err, body)
			return
		}
		if outcome != nil && outcome.Applied {
			h.logger.InfoContext(ctx, "notification applied", "job_id", outcome.JobID, "signal", string(outcome.Signal))
		}
		writeText(w, "Done")
	}
}

func (h *NotificationHandler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, body []byte) {
	level := slog.LevelError
	if errors.Is(err, notification.ErrMissingErrorDetail) {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg, "error", err, "body", string(body))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s))
}
