package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"encoder-pipeline/core/models"
)

// EventRepository handles database operations for job events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetJobEvents retrieves the most recent transitions for a job
func (r *EventRepository) GetJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error) {
	query := `
		SELECT id, job_id, at, from_state, to_state, message, payload
		FROM encode_job_events
		WHERE job_id = $1
		ORDER BY at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, jobID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.JobEvent
	for rows.Next() {
		var event models.JobEvent
		var fromState sql.NullInt16
		var payload []byte

		err := rows.Scan(
			&event.ID,
			&event.JobID,
			&event.At,
			&fromState,
			&event.ToState,
			&event.Message,
			&payload,
		)
		if err != nil {
			return nil, err
		}

		if fromState.Valid {
			state := models.JobState(fromState.Int16)
			event.FromState = &state
		}

		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode payload of event %d: %w", event.ID, err)
			}
		}

		events = append(events, event)
	}

	return events, rows.Err()
}
