package models

import "time"

// JobEvent represents a state transition recorded for a job
type JobEvent struct {
	ID        int64
	JobID     string
	At        time.Time
	FromState *JobState
	ToState   JobState
	Message   string
	Payload   map[string]interface{} // Notification that caused the transition
}
