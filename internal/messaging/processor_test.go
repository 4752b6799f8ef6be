package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"valentine-server/internal/domain"
	"valentine-server/internal/messaging"
	"valentine-server/internal/mocks"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()
	event := domain.ResponseRecordedEvent{
		ResponseID: 42,
		Answer:     true,
		RecordedAt: time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC),
		SessionKey: "s-1",
	}
	body, _ := json.Marshal(event)

	t.Run("Successful processing acks", func(t *testing.T) {
		handler := new(mocks.EventHandler)
		delivery := new(mocks.Delivery)
		p := messaging.NewProcessor(handler, time.Second, zap.NewNop())

		handler.On("HandleResponseRecorded", mock.Anything, mock.MatchedBy(func(e domain.ResponseRecordedEvent) bool {
			return e.ResponseID == 42 && e.Answer && e.RecordedAt.Equal(event.RecordedAt)
		})).Return(nil).Once()
		delivery.On("Ack", false).Return(nil).Once()

		p.Process(ctx, body, false, delivery)

		handler.AssertExpectations(t)
		delivery.AssertExpectations(t)
	})

	t.Run("Invalid JSON is dropped", func(t *testing.T) {
		handler := new(mocks.EventHandler)
		delivery := new(mocks.Delivery)
		p := messaging.NewProcessor(handler, time.Second, zap.NewNop())

		delivery.On("Nack", false, false).Return(nil).Once()

		p.Process(ctx, []byte("{not json"), false, delivery)

		delivery.AssertExpectations(t)
		handler.AssertNotCalled(t, "HandleResponseRecorded", mock.Anything, mock.Anything)
	})

	t.Run("Transient failure is requeued once", func(t *testing.T) {
		handler := new(mocks.EventHandler)
		delivery := new(mocks.Delivery)
		p := messaging.NewProcessor(handler, time.Second, zap.NewNop())

		handler.On("HandleResponseRecorded", mock.Anything, mock.Anything).Return(errors.New("fcm unavailable")).Twice()
		delivery.On("Nack", false, true).Return(nil).Once()
		delivery.On("Nack", false, false).Return(nil).Once()

		p.Process(ctx, body, false, delivery)
		p.Process(ctx, body, true, delivery)

		delivery.AssertExpectations(t)
	})

	t.Run("Permanent failure is not requeued", func(t *testing.T) {
		handler := new(mocks.EventHandler)
		delivery := new(mocks.Delivery)
		p := messaging.NewProcessor(handler, time.Second, zap.NewNop())

		handler.On("HandleResponseRecorded", mock.Anything, mock.Anything).
			Return(fmt.Errorf("no tokens: %w", messaging.ErrPermanent)).Once()
		delivery.On("Nack", false, false).Return(nil).Once()

		p.Process(ctx, body, false, delivery)

		delivery.AssertExpectations(t)
	})
}
