package notification

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidEnvelope     = errors.New("invalid notification envelope")
	ErrInvalidMessage      = errors.New("invalid transcode message")
	ErrMissingSubscribeURL = errors.New("subscription confirmation without SubscribeURL")
	ErrMissingErrorDetail  = errors.New("error notification carries neither messageDetails nor outputs")
)

// Envelope types sent by SNS
const (
	TypeSubscriptionConfirmation = "SubscriptionConfirmation"
	TypeNotification             = "Notification"
	TypeUnsubscribeConfirmation  = "UnsubscribeConfirmation"
)

// Envelope is the outer JSON document SNS posts to HTTP subscribers
type Envelope struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicARN     string `json:"TopicArn"`
	Subject      string `json:"Subject,omitempty"`
	Message      string `json:"Message"`
	Timestamp    string `json:"Timestamp"`
	Token        string `json:"Token,omitempty"`
	SubscribeURL string `json:"SubscribeURL,omitempty"`
}

// ParseEnvelope decodes a request body. Any decoding failure is reported
// as ErrInvalidEnvelope.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &env, nil
}

// TranscodeMessage is the Elastic Transcoder job event carried in an
// envelope's Message field.
type TranscodeMessage struct {
	State          string             `json:"state"`
	JobID          string             `json:"jobId"`
	PipelineID     string             `json:"pipelineId,omitempty"`
	ErrorCode      *int               `json:"errorCode,omitempty"`
	MessageDetails *string            `json:"messageDetails,omitempty"`
	Outputs        *[]TranscodeOutput `json:"outputs,omitempty"`
}

// TranscodeOutput is a single output entry of a job event
type TranscodeOutput struct {
	ID           string `json:"id,omitempty"`
	Key          string `json:"key,omitempty"`
	Status       string `json:"status,omitempty"`
	StatusDetail string `json:"statusDetail,omitempty"`
}

// ParseMessage decodes the inner job event, returning both the typed view
// and the full payload.
func ParseMessage(raw string) (*TranscodeMessage, map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	var msg TranscodeMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &msg, payload, nil
}
