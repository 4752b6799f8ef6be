package domain

import "time"

// ResponseRecordedEvent is published after a new answer has been stored.
type ResponseRecordedEvent struct {
	ResponseID int64     `json:"response_id"`
	Answer     bool      `json:"answer"`
	RecordedAt time.Time `json:"recorded_at"`
	SessionKey string    `json:"session_key,omitempty"`
}

func NewResponseRecordedEvent(r *Response, sessionKey string) ResponseRecordedEvent {
	return ResponseRecordedEvent{
		ResponseID: r.ID,
		Answer:     r.Answer,
		RecordedAt: r.Timestamp,
		SessionKey: sessionKey,
	}
}
