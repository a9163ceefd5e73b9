package monitoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"encoder-pipeline/core/models"
	"encoder-pipeline/core/signals"
)

// StateCounter reports how many jobs are in each state
type StateCounter interface {
	CountByState(ctx context.Context) (map[models.JobState]int, error)
}

// MetricsExporter exports metrics for Prometheus
type MetricsExporter struct {
	jobs    StateCounter
	tracker *SignalTracker
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(jobs StateCounter, tracker *SignalTracker) *MetricsExporter {
	return &MetricsExporter{
		jobs:    jobs,
		tracker: tracker,
	}
}

var allStates = []models.JobState{
	models.JobStateSubmitted,
	models.JobStateProgressing,
	models.JobStateError,
	models.JobStateComplete,
}

var allKinds = []signals.Kind{signals.KindProgress, signals.KindComplete, signals.KindError}

// GetPrometheusMetrics returns metrics in Prometheus text format
func (me *MetricsExporter) GetPrometheusMetrics(ctx context.Context) (string, error) {
	counts, err := me.jobs.CountByState(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count jobs: %w", err)
	}

	var b strings.Builder

	b.WriteString("# HELP encoder_jobs Number of encode jobs per state\n")
	b.WriteString("# TYPE encoder_jobs gauge\n")
	for _, state := range allStates {
		fmt.Fprintf(&b, "encoder_jobs{state=%q} %d\n", state.String(), counts[state])
	}

	active := 0
	for _, state := range models.ActiveStates {
		active += counts[state]
	}
	b.WriteString("# HELP encoder_jobs_active Number of submitted or progressing jobs\n")
	b.WriteString("# TYPE encoder_jobs_active gauge\n")
	fmt.Fprintf(&b, "encoder_jobs_active %d\n", active)

	if me.tracker != nil {
		snapshot := me.tracker.Snapshot()
		kinds := append([]signals.Kind(nil), allKinds...)
		for k := range snapshot {
			if !containsKind(kinds, k) {
				kinds = append(kinds, k)
			}
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

		b.WriteString("# HELP encoder_signals_total Job signals dispatched since start\n")
		b.WriteString("# TYPE encoder_signals_total counter\n")
		for _, k := range kinds {
			fmt.Fprintf(&b, "encoder_signals_total{kind=%q} %d\n", string(k), snapshot[k])
		}
	}

	return b.String(), nil
}

func containsKind(kinds []signals.Kind, k signals.Kind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}
