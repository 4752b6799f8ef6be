package mocks

import (
	"context"

	"valentine-server/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Mock ResponseService
type ResponseService struct {
	mock.Mock
}

func (m *ResponseService) SubmitResponse(ctx context.Context, answer bool, idempotencyKey string) (*domain.Response, bool, error) {
	args := m.Called(ctx, answer, idempotencyKey)
	if r := args.Get(0); r != nil {
		return r.(*domain.Response), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *ResponseService) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
