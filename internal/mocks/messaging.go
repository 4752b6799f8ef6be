package mocks

import (
	"context"

	"valentine-server/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishResponseRecorded(ctx context.Context, event domain.ResponseRecordedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Mock EventHandler
type EventHandler struct {
	mock.Mock
}

func (m *EventHandler) HandleResponseRecorded(ctx context.Context, event domain.ResponseRecordedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Mock Delivery
type Delivery struct {
	mock.Mock
}

func (m *Delivery) Ack(multiple bool) error {
	args := m.Called(multiple)
	return args.Error(0)
}

func (m *Delivery) Nack(multiple, requeue bool) error {
	args := m.Called(multiple, requeue)
	return args.Error(0)
}
