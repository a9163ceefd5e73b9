package aws

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	ErrInvalidRegion    = errors.New("invalid region")
	ErrMissingParameter = errors.New("missing required parameter")
)

// UpstreamError is a rejected AWS API call, carrying the service's error
// code and message when it provided them.
type UpstreamError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed:\n\tCode: %s\n\tMessage: %s", e.Op, e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(op string, err error) error {
	ue := &UpstreamError{Op: op, Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ue.Code = apiErr.ErrorCode()
		ue.Message = apiErr.ErrorMessage()
	}
	return ue
}
