package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"encoder-pipeline/core/models"

	"github.com/lib/pq"
)

// JobRepository handles database operations for encode jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, owner_kind, owner_id, state, message, created_at, last_modified`

// CreateJob stores a freshly submitted job. This is the submission path's
// entry point; notifications never create jobs.
func (r *JobRepository) CreateJob(ctx context.Context, job *models.EncodeJob) error {
	query := `
		INSERT INTO encode_jobs (id, owner_kind, owner_id, state, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, last_modified
	`

	err := r.db.QueryRowContext(ctx, query,
		job.ID,
		job.Owner.Kind,
		job.Owner.ID,
		job.State,
		job.Message,
	).Scan(&job.CreatedAt, &job.LastModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob retrieves a job by ID
func (r *JobRepository) GetJob(ctx context.Context, id string) (*models.EncodeJob, error) {
	query := `SELECT ` + jobColumns + ` FROM encode_jobs WHERE id = $1`

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateJobState persists the job's new state and message and records the
// transition, atomically. from is the state the job had before the change.
func (r *JobRepository) UpdateJobState(ctx context.Context, job *models.EncodeJob, from models.JobState, payload map[string]interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `UPDATE encode_jobs SET state = $1, message = $2, last_modified = NOW() WHERE id = $3 RETURNING last_modified`
	var lastModified time.Time
	err = tx.QueryRowContext(ctx, updateQuery, job.State, job.Message, job.ID).Scan(&lastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}

	if err := createJobEventTx(ctx, tx, job.ID, &from, job.State, job.Message, payload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	job.LastModifiedAt = lastModified
	return nil
}

func createJobEventTx(ctx context.Context, tx *sql.Tx, jobID string, from *models.JobState, to models.JobState, message string, payload map[string]interface{}) error {
	query := `
		INSERT INTO encode_job_events (job_id, from_state, to_state, message, payload)
		VALUES ($1, $2, $3, $4, $5)
	`

	var fromState sql.NullInt16
	if from != nil {
		fromState = sql.NullInt16{Int16: int16(*from), Valid: true}
	}

	payloadJSON := []byte("{}")
	if payload != nil {
		var err error
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode event payload: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, query, jobID, fromState, to, message, payloadJSON); err != nil {
		return fmt.Errorf("failed to record job event: %w", err)
	}
	return nil
}

// ListJobs lists the most recently modified jobs, optionally only the
// active ones.
func (r *JobRepository) ListJobs(ctx context.Context, activeOnly bool, limit int) ([]*models.EncodeJob, error) {
	query := `SELECT ` + jobColumns + ` FROM encode_jobs`
	args := []interface{}{}

	if activeOnly {
		query += ` WHERE state = ANY($1)`
		args = append(args, pq.Array(stateCodes(models.ActiveStates)))
	}
	query += fmt.Sprintf(` ORDER BY last_modified DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	return r.queryJobs(ctx, query, args...)
}

// ListStaleActiveJobs returns active jobs whose last change is older than
// the given instant.
func (r *JobRepository) ListStaleActiveJobs(ctx context.Context, olderThan time.Time) ([]*models.EncodeJob, error) {
	query := `SELECT ` + jobColumns + ` FROM encode_jobs
		WHERE state = ANY($1) AND last_modified < $2
		ORDER BY last_modified`

	return r.queryJobs(ctx, query, pq.Array(stateCodes(models.ActiveStates)), olderThan)
}

// CountByState returns the number of jobs in each state
func (r *JobRepository) CountByState(ctx context.Context) (map[models.JobState]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM encode_jobs GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.JobState]int)
	for rows.Next() {
		var state models.JobState
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

func (r *JobRepository) queryJobs(ctx context.Context, query string, args ...interface{}) ([]*models.EncodeJob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.EncodeJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.EncodeJob, error) {
	var job models.EncodeJob
	err := row.Scan(
		&job.ID,
		&job.Owner.Kind,
		&job.Owner.ID,
		&job.State,
		&job.Message,
		&job.CreatedAt,
		&job.LastModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func stateCodes(states []models.JobState) []int64 {
	codes := make([]int64, len(states))
	for i, s := range states {
		codes[i] = int64(s)
	}
	return codes
}
