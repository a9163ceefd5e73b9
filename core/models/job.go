package models

import "time"

// EncodeJob tracks a single Elastic Transcoder job. Its ID is the
// transcoder's own job id; the record is created when the job is submitted
// and afterwards only changed by pipeline notifications.
type EncodeJob struct {
	ID             string
	Owner          OwnerRef
	State          JobState
	Message        string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// OwnerRef is an opaque reference to whatever application entity the job
// was submitted for. Nothing in this module dereferences it.
type OwnerRef struct {
	Kind string
	ID   string
}

// JobState represents the lifecycle state of an encode job
type JobState int

const (
	JobStateSubmitted   JobState = 0
	JobStateProgressing JobState = 1
	JobStateError       JobState = 2
	JobStateComplete    JobState = 3
)

// ActiveStates are the states in which a job is still expected to change.
var ActiveStates = []JobState{JobStateSubmitted, JobStateProgressing}

func (s JobState) String() string {
	switch s {
	case JobStateSubmitted:
		return "Submitted"
	case JobStateProgressing:
		return "Progressing"
	case JobStateError:
		return "Error"
	case JobStateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// IsActive reports whether the job has not reached a terminal state yet.
func (s JobState) IsActive() bool {
	for _, a := range ActiveStates {
		if s == a {
			return true
		}
	}
	return false
}

// MarshalText lets states appear by name in JSON responses.
func (s JobState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
