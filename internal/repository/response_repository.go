package repository

import (
	"context"
	"errors"

	"valentine-server/internal/domain"
)

// ResponseRepository определяет методы для хранилища ответов.
type ResponseRepository interface {
	// Create сохраняет ответ и возвращает запись с присвоенными id и timestamp.
	Create(ctx context.Context, answer bool) (*domain.Response, error)
	// Ping проверяет доступность хранилища (для /health).
	Ping(ctx context.Context) error
}

// IdempotencyStore remembers which Idempotency-Key produced which record.
type IdempotencyStore interface {
	// Reserve claims key. It returns (nil, nil) when the caller now owns the key,
	// the stored record when the key already completed, and domain.ErrSubmissionInFlight
	// when another request holds it.
	Reserve(ctx context.Context, key string) (*domain.Response, error)
	// Complete stores the record for a reserved key.
	Complete(ctx context.Context, key string, r *domain.Response) error
	// Release drops a reservation after a failed write so the key can be retried.
	Release(ctx context.Context, key string) error
}

var errEmptyKey = errors.New("idempotency key is empty")
