package mocks

import (
	"context"

	"valentine-server/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Mock ResponseRepository
type ResponseRepository struct {
	mock.Mock
}

func (m *ResponseRepository) Create(ctx context.Context, answer bool) (*domain.Response, error) {
	args := m.Called(ctx, answer)
	if r := args.Get(0); r != nil {
		return r.(*domain.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResponseRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Mock IdempotencyStore
type IdempotencyStore struct {
	mock.Mock
}

func (m *IdempotencyStore) Reserve(ctx context.Context, key string) (*domain.Response, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(*domain.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdempotencyStore) Complete(ctx context.Context, key string, r *domain.Response) error {
	args := m.Called(ctx, key, r)
	return args.Error(0)
}

func (m *IdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
