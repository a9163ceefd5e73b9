package notification_test

import (
	"testing"

	"encoder-pipeline/core/models"
	"encoder-pipeline/core/notification"
	"encoder-pipeline/core/signals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *notification.TranscodeMessage {
	t.Helper()
	msg, _, err := notification.ParseMessage(raw)
	require.NoError(t, err)
	return msg
}

func TestTransitionFor(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		wantOK     bool
		wantState  models.JobState
		wantMsg    string
		wantSignal signals.Kind
		wantErr    error
	}{
		{
			name:       "progressing",
			message:    `{"jobId":"j","state":"PROGRESSING"}`,
			wantOK:     true,
			wantState:  models.JobStateProgressing,
			wantMsg:    "Progress",
			wantSignal: signals.KindProgress,
		},
		{
			name:       "completed",
			message:    `{"jobId":"j","state":"COMPLETED"}`,
			wantOK:     true,
			wantState:  models.JobStateComplete,
			wantMsg:    "Success",
			wantSignal: signals.KindComplete,
		},
		{
			name:       "error with messageDetails",
			message:    `{"jobId":"j","state":"ERROR","messageDetails":"3002 25319782: The specified object could not be saved","outputs":[{"statusDetail":"ignored"}]}`,
			wantOK:     true,
			wantState:  models.JobStateError,
			wantMsg:    "3002 25319782: The specified object could not be saved",
			wantSignal: signals.KindError,
		},
		{
			name:       "error with outputs only",
			message:    `{"jobId":"j","state":"ERROR","outputs":[{"id":"1","statusDetail":"first <bad>"},{"id":"2","statusDetail":"second"}]}`,
			wantOK:     true,
			wantState:  models.JobStateError,
			wantMsg:    `["first <bad>","second"]`,
			wantSignal: signals.KindError,
		},
		{
			name:       "error with empty outputs",
			message:    `{"jobId":"j","state":"ERROR","outputs":[]}`,
			wantOK:     true,
			wantState:  models.JobStateError,
			wantMsg:    `[]`,
			wantSignal: signals.KindError,
		},
		{
			name:    "error without any detail",
			message: `{"jobId":"j","state":"ERROR"}`,
			wantErr: notification.ErrMissingErrorDetail,
		},
		{
			name:    "warning is ignored",
			message: `{"jobId":"j","state":"WARNING"}`,
		},
		{
			name:    "missing state is ignored",
			message: `{"jobId":"j"}`,
		},
		{
			name:    "known state without job id",
			message: `{"state":"COMPLETED"}`,
			wantErr: notification.ErrInvalidMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok, err := notification.TransitionFor(mustParse(t, tt.message))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantState, tr.State)
			assert.Equal(t, tt.wantMsg, tr.Message)
			assert.Equal(t, tt.wantSignal, tr.Signal)
		})
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	for _, raw := range []string{"", "not json", "42", `["a"]`} {
		_, _, err := notification.ParseMessage(raw)
		assert.ErrorIs(t, err, notification.ErrInvalidMessage, raw)
	}
}

func TestParseEnvelope(t *testing.T) {
	env, err := notification.ParseEnvelope([]byte(`{"Type":"Notification","Message":"{}","TopicArn":"arn:aws:sns:us-east-1:1:t"}`))
	require.NoError(t, err)
	assert.Equal(t, notification.TypeNotification, env.Type)
	assert.Equal(t, "arn:aws:sns:us-east-1:1:t", env.TopicARN)

	_, err = notification.ParseEnvelope([]byte(`{"Type":`))
	assert.ErrorIs(t, err, notification.ErrInvalidEnvelope)
}
