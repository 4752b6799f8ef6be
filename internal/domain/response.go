package domain

import "time"

// Response is one stored answer.
type Response struct {
	ID        int64     `json:"id" db:"id"`
	Answer    bool      `json:"answer" db:"answer"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// SubmitResponseRequest is the body of POST /api/response.
// Answer is a pointer so that an explicit false passes the required check.
type SubmitResponseRequest struct {
	Answer *bool `json:"answer" binding:"required"`
}

// ErrorResponse is the error body; the field is "message" for compatibility with existing clients.
type ErrorResponse struct {
	Message string `json:"message"`
}
