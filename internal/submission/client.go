// Package submission sends the reader's answer to the persistence endpoint.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"valentine-server/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ResponsePath         = "/api/response"
	IdempotencyKeyHeader = "Idempotency-Key"

	maxBodyBytes = 1 << 20
)

// Submitter performs one write of the answer. Implementations must not retry.
type Submitter interface {
	Submit(ctx context.Context, answer bool) (*domain.Response, error)
}

// SubmitterFunc adapts an in-process function (e.g. the service itself) to Submitter.
type SubmitterFunc func(ctx context.Context, answer bool) (*domain.Response, error)

func (f SubmitterFunc) Submit(ctx context.Context, answer bool) (*domain.Response, error) {
	return f(ctx, answer)
}

var _ Submitter = (*HTTPClient)(nil)

// HTTPClient posts answers to {baseURL}/api/response.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	sessionKey string
	log        zerolog.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithSessionKey fixes the Idempotency-Key; by default every client gets a fresh uuid.
func WithSessionKey(key string) Option {
	return func(c *HTTPClient) { c.sessionKey = key }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		sessionKey: uuid.NewString(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "submission_client").Logger()
	return c
}

func (c *HTTPClient) SessionKey() string { return c.sessionKey }

// Submit делает ровно один POST. Ошибки типизированы: ValidationError, TransportError, ProtocolError.
func (c *HTTPClient) Submit(ctx context.Context, answer bool) (*domain.Response, error) {
	log := c.log.With().Bool("answer", answer).Str("session_key", c.sessionKey).Logger()

	payload, err := json.Marshal(domain.SubmitResponseRequest{Answer: &answer})
	if err != nil {
		return nil, &ProtocolError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ResponsePath, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.sessionKey != "" {
		req.Header.Set(IdempotencyKeyHeader, c.sessionKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to execute submission request")
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Error().Err(err).Int("status", resp.StatusCode).Msg("Failed to read submission response")
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		msg := errorMessage(body, resp.StatusCode)
		log.Warn().Str("message", msg).Msg("Submission rejected by server")
		return nil, &ValidationError{Message: msg}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := errorMessage(body, resp.StatusCode)
		log.Error().Int("status", resp.StatusCode).Str("message", msg).Msg("Unexpected submission status")
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Message: msg}
	}

	record, err := decodeRecord(body)
	if err != nil {
		log.Error().Err(err).Int("status", resp.StatusCode).Msg("Malformed submission response")
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Err: err}
	}

	log.Info().
		Int64("response_id", record.ID).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(started)).
		Msg("Answer submitted")
	return record, nil
}

func decodeRecord(body []byte) (*domain.Response, error) {
	// ожидаем {id, answer, timestamp}; лишние поля допустимы
	var raw struct {
		ID        *int64     `json:"id"`
		Answer    *bool      `json:"answer"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response record: %w", err)
	}
	if raw.ID == nil || raw.Answer == nil || raw.Timestamp == nil {
		return nil, errors.New("response record is missing id, answer or timestamp")
	}
	return &domain.Response{ID: *raw.ID, Answer: *raw.Answer, Timestamp: *raw.Timestamp}, nil
}

func errorMessage(body []byte, status int) string {
	var er domain.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return er.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 256 {
		return text
	}
	return http.StatusText(status)
}
