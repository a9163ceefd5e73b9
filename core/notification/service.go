package notification

import (
	"context"
	"fmt"
	"log/slog"

	"encoder-pipeline/core/models"
	"encoder-pipeline/core/signals"
)

// JobStore is the slice of the job repository the service needs
type JobStore interface {
	GetJob(ctx context.Context, id string) (*models.EncodeJob, error)
	UpdateJobState(ctx context.Context, job *models.EncodeJob, from models.JobState, payload map[string]interface{}) error
}

// SignalDispatcher delivers signals to in-process listeners
type SignalDispatcher interface {
	Dispatch(ctx context.Context, sig signals.Signal) error
}

// Outcome describes what processing a notification did
type Outcome struct {
	JobID   string
	Applied bool
	From    models.JobState
	To      models.JobState
	Signal  signals.Kind
}

// Service turns SNS deliveries into subscription handshakes or job
// state changes.
type Service struct {
	jobs      JobStore
	signals   SignalDispatcher
	confirmer Confirmer
	operators OperatorNotifier
	logger    *slog.Logger
}

// NewService creates a notification service
func NewService(jobs JobStore, dispatcher SignalDispatcher, confirmer Confirmer, operators OperatorNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		jobs:      jobs,
		signals:   dispatcher,
		confirmer: confirmer,
		operators: operators,
		logger:    logger,
	}
}

const subscribeNoticeSubject = "Please confirm SNS subscription"

const subscribeNoticeBody = `This message serves as a fail-safe in case the automatic subscription confirmation fails.

Please visit this URL below to confirm your subscription with SNS

%s
`

// ConfirmSubscription completes the SNS subscription handshake. Operators
// are told about the URL first so they can confirm by hand if the
// automatic fetch fails.
func (s *Service) ConfirmSubscription(ctx context.Context, env *Envelope) error {
	if env.SubscribeURL == "" {
		return ErrMissingSubscribeURL
	}

	if err := s.operators.NotifyOperators(ctx, subscribeNoticeSubject, fmt.Sprintf(subscribeNoticeBody, env.SubscribeURL)); err != nil {
		s.logger.WarnContext(ctx, "failed to send subscription notice to operators", "error", err, "topic_arn", env.TopicARN)
	}

	if err := s.confirmer.Confirm(ctx, env.SubscribeURL); err != nil {
		return fmt.Errorf("failed to confirm subscription: %w", err)
	}

	s.logger.InfoContext(ctx, "sns subscription confirmed", "topic_arn", env.TopicARN)
	return nil
}

// ProcessNotification applies the job event carried by env. Events whose
// state does not map to a job state are acknowledged without any change.
// The new state always overwrites the stored one: deliveries are applied
// in arrival order.
func (s *Service) ProcessNotification(ctx context.Context, env *Envelope) (*Outcome, error) {
	msg, payload, err := ParseMessage(env.Message)
	if err != nil {
		return nil, err
	}

	transition, ok, err := TransitionFor(msg)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "ignoring transcode notification", "state", msg.State, "job_id", msg.JobID)
		return &Outcome{JobID: msg.JobID}, nil
	}

	job, err := s.jobs.GetJob(ctx, msg.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	from := job.State
	job.State = transition.State
	job.Message = transition.Message
	if err := s.jobs.UpdateJobState(ctx, job, from, payload); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	s.logger.InfoContext(ctx, "job state updated",
		"job_id", job.ID, "from", from.String(), "to", job.State.String())

	if err := s.signals.Dispatch(ctx, signals.Signal{Kind: transition.Signal, Job: job, Message: payload}); err != nil {
		return nil, err
	}

	return &Outcome{
		JobID:   job.ID,
		Applied: true,
		From:    from,
		To:      job.State,
		Signal:  transition.Signal,
	}, nil
}
