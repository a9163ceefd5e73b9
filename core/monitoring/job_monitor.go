package monitoring

import (
	"context"
	"log/slog"
	"time"

	"encoder-pipeline/core/models"
	"encoder-pipeline/core/signals"
)

// StaleJobLister finds active jobs that have not changed for a while
type StaleJobLister interface {
	ListStaleActiveJobs(ctx context.Context, olderThan time.Time) ([]*models.EncodeJob, error)
}

const defaultSweepInterval = 5 * time.Minute

// JobMonitor logs job signals and periodically reports jobs stuck in an
// active state.
type JobMonitor struct {
	jobs       StaleJobLister
	logger     *slog.Logger
	staleAfter time.Duration
	interval   time.Duration
	now        func() time.Time
}

// NewJobMonitor creates a new job monitor
func NewJobMonitor(jobs StaleJobLister, staleAfter time.Duration, logger *slog.Logger) *JobMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	interval := defaultSweepInterval
	if staleAfter > 0 && staleAfter < interval {
		interval = staleAfter
	}
	return &JobMonitor{
		jobs:       jobs,
		logger:     logger,
		staleAfter: staleAfter,
		interval:   interval,
		now:        time.Now,
	}
}

// HandleSignal logs the job transition carried by sig
func (jm *JobMonitor) HandleSignal(ctx context.Context, sig signals.Signal) error {
	if sig.Job == nil {
		return nil
	}

	attrs := []any{
		"signal", string(sig.Kind),
		"job_id", sig.Job.ID,
		"state", sig.Job.State.String(),
		"owner_kind", sig.Job.Owner.Kind,
		"owner_id", sig.Job.Owner.ID,
	}
	if sig.Kind == signals.KindError {
		jm.logger.WarnContext(ctx, "transcode job failed", append(attrs, "message", sig.Job.Message)...)
		return nil
	}
	jm.logger.InfoContext(ctx, "transcode job "+string(sig.Kind), attrs...)
	return nil
}

// Start runs the stale job sweep until ctx is cancelled
func (jm *JobMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(jm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jm.Sweep(ctx)
		}
	}
}

// Sweep warns about every active job untouched for longer than staleAfter
// and returns them.
func (jm *JobMonitor) Sweep(ctx context.Context) []*models.EncodeJob {
	cutoff := jm.now().Add(-jm.staleAfter)
	jobs, err := jm.jobs.ListStaleActiveJobs(ctx, cutoff)
	if err != nil {
		jm.logger.ErrorContext(ctx, "failed to fetch stale jobs", "error", err)
		return nil
	}

	for _, job := range jobs {
		jm.logger.WarnContext(ctx, "transcode job has not progressed",
			"job_id", job.ID,
			"state", job.State.String(),
			"last_modified", job.LastModifiedAt,
			"idle", jm.now().Sub(job.LastModifiedAt).Round(time.Second).String(),
		)
	}
	return jobs
}
