package submission

import (
	"errors"
	"fmt"

	"valentine-server/internal/letter"
)

// ErrSubmissionFailed matches every submission failure via errors.Is.
var ErrSubmissionFailed = errors.New("submission failed")

// ValidationError: the server rejected the payload (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("submission rejected: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrSubmissionFailed }

// TransportError: the request never got a response (network failure, timeout, cancellation).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("submission transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrSubmissionFailed }

// ProtocolError: unexpected status or a body that is not a response record.
type ProtocolError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission protocol error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission protocol error (status %d): %s", e.StatusCode, e.Message)
}

func (e *ProtocolError) Unwrap() error        { return e.Err }
func (e *ProtocolError) Is(target error) bool { return target == ErrSubmissionFailed }

// Notice is the non-fatal message shown to the reader when saving fails.
type Notice struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// FailureNotice is the same for every failure kind; the answer was still given.
func FailureNotice() Notice {
	return Notice{Title: letter.NoticeTitle, Body: letter.NoticeBody}
}
