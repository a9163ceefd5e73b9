package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"encoder-pipeline/core/models"
	"encoder-pipeline/core/signals"
)

// Incoming transcoder states
const (
	StateProgressing = "PROGRESSING"
	StateCompleted   = "COMPLETED"
	StateError       = "ERROR"
)

const (
	MessageProgress = "Progress"
	MessageSuccess  = "Success"
)

// Transition is the change a job event applies to its job
type Transition struct {
	State   models.JobState
	Message string
	Signal  signals.Kind
}

// TransitionFor maps a job event to the job change it causes. ok is false
// for states that do not change the job (for example WARNING).
func TransitionFor(msg *TranscodeMessage) (t Transition, ok bool, err error) {
	switch msg.State {
	case StateProgressing:
		t = Transition{State: models.JobStateProgressing, Message: MessageProgress, Signal: signals.KindProgress}
	case StateCompleted:
		t = Transition{State: models.JobStateComplete, Message: MessageSuccess, Signal: signals.KindComplete}
	case StateError:
		detail, err := errorDetail(msg)
		if err != nil {
			return Transition{}, false, err
		}
		t = Transition{State: models.JobStateError, Message: detail, Signal: signals.KindError}
	default:
		return Transition{}, false, nil
	}

	if msg.JobID == "" {
		return Transition{}, false, fmt.Errorf("%w: missing jobId", ErrInvalidMessage)
	}
	return t, true, nil
}

// errorDetail prefers messageDetails; otherwise it reports every output's
// statusDetail, in order, as a JSON array.
func errorDetail(msg *TranscodeMessage) (string, error) {
	if msg.MessageDetails != nil {
		return *msg.MessageDetails, nil
	}
	if msg.Outputs == nil {
		return "", ErrMissingErrorDetail
	}

	details := make([]string, 0, len(*msg.Outputs))
	for _, o := range *msg.Outputs {
		details = append(details, o.StatusDetail)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(details); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
