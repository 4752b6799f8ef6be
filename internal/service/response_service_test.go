package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"valentine-server/internal/domain"
	"valentine-server/internal/mocks"
	"valentine-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestSubmitResponse(t *testing.T) {
	ctx := context.Background()
	stored := &domain.Response{ID: 1, Answer: true, Timestamp: time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)}

	t.Run("Successful submission with idempotency key", func(t *testing.T) {
		mockRepo := new(mocks.ResponseRepository)
		mockStore := new(mocks.IdempotencyStore)
		mockPublisher := new(mocks.EventPublisher)
		svc := service.NewResponseService(mockRepo, mockStore, mockPublisher, time.Second, zap.NewNop())

		mockStore.On("Reserve", ctx, "key-1").Return(nil, nil).Once()
		mockRepo.On("Create", ctx, true).Return(stored, nil).Once()
		mockStore.On("Complete", mock.Anything, "key-1", stored).Return(nil).Once()
		mockPublisher.On("PublishResponseRecorded", mock.Anything, mock.MatchedBy(func(e domain.ResponseRecordedEvent) bool {
			// Проверяем содержимое события
			return e.ResponseID == 1 && e.Answer && e.SessionKey == "key-1" && e.RecordedAt.Equal(stored.Timestamp)
		})).Return(nil).Once()

		resp, replayed, err := svc.SubmitResponse(ctx, true, "key-1")

		assert.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, stored, resp)
		mockRepo.AssertExpectations(t)
		mockStore.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Replay returns the stored record", func(t *testing.T) {
		mockRepo := new(mocks.ResponseRepository)
		mockStore := new(mocks.IdempotencyStore)
		mockPublisher := new(mocks.EventPublisher)
		svc := service.NewResponseService(mockRepo, mockStore, mockPublisher, time.Second, zap.NewNop())

		mockStore.On("Reserve", ctx, "key-1").Return(stored, nil).Once()

		resp, replayed, err := svc.SubmitResponse(ctx, true, "key-1")

		assert.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, stored, resp)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mockPublisher.AssertNotCalled(t, "PublishResponseRecorded", mock.Anything, mock.Anything)
	})

	t.Run("In-flight key is reported", func(t *testing.T) {
		mockRepo := new(mocks.ResponseRepository)
		mockStore := new(mocks.IdempotencyStore)
		svc := service.NewResponseService(mockRepo, mockStore, new(mocks.EventPublisher), time.Second, zap.NewNop())

		mockStore.On("Reserve", ctx, "key-1").Return(nil, domain.ErrSubmissionInFlight).Once()

		resp, _, err := svc.SubmitResponse(ctx, true, "key-1")

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Storage failure releases the key", func(t *testing.T) {
		mockRepo := new(mocks.ResponseRepository)
		mockStore := new(mocks.IdempotencyStore)
		mockPublisher := new(mocks.EventPublisher)
		svc := service.NewResponseService(mockRepo, mockStore, mockPublisher, time.Second, zap.NewNop())
		dbErr := errors.Join(domain.ErrStorage, errors.New("connection reset"))

		mockStore.On("Reserve", ctx, "key-2").Return(nil, nil).Once()
		mockRepo.On("Create", ctx, false).Return(nil, dbErr).Once()
		mockStore.On("Release", mock.Anything, "key-2").Return(nil).Once()

		resp, _, err := svc.SubmitResponse(ctx, false, "key-2")

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.Contains(t, err.Error(), "ошибка сохранения ответа")
		mockStore.AssertExpectations(t)
		mockPublisher.AssertNotCalled(t, "PublishResponseRecorded", mock.Anything, mock.Anything)
	})

	t.Run("Publish failure does not fail the request", func(t *testing.T) {
		mockRepo := new(mocks.ResponseRepository)
		mockPublisher := new(mocks.EventPublisher)
		svc := service.NewResponseService(mockRepo, nil, mockPublisher, time.Second, zap.NewNop())

		mockRepo.On("Create", ctx, true).Return(stored, nil).Once()
		mockPublisher.On("PublishResponseRecorded", mock.Anything, mock.AnythingOfType("domain.ResponseRecordedEvent")).
			Return(errors.New("channel closed")).Once()

		resp, replayed, err := svc.SubmitResponse(ctx, true, "")

		assert.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, stored, resp)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Empty key skips the idempotency store", func(t *testing.T) {
		mockRepo := new(mocks.ResponseRepository)
		mockStore := new(mocks.IdempotencyStore)
		svc := service.NewResponseService(mockRepo, mockStore, nil, time.Second, zap.NewNop())

		mockRepo.On("Create", ctx, true).Return(stored, nil).Once()

		_, _, err := svc.SubmitResponse(ctx, true, "")

		assert.NoError(t, err)
		mockStore.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
	})
}

func TestHealth(t *testing.T) {
	mockRepo := new(mocks.ResponseRepository)
	svc := service.NewResponseService(mockRepo, nil, nil, time.Second, zap.NewNop())
	mockRepo.On("Ping", mock.Anything).Return(domain.ErrStorage).Once()

	assert.ErrorIs(t, svc.Health(context.Background()), domain.ErrStorage)
}
