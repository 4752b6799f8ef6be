package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input data")
	// ErrSubmissionInFlight: запрос с тем же Idempotency-Key ещё обрабатывается.
	ErrSubmissionInFlight = errors.New("submission with this idempotency key is in progress")
	ErrStorage            = errors.New("storage error")
)
