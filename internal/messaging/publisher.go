package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"valentine-server/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher announces stored answers to other services.
type EventPublisher interface {
	PublishResponseRecorded(ctx context.Context, event domain.ResponseRecordedEvent) error
}

// RabbitMQEventPublisher publishes to the letter_events fanout exchange.
type RabbitMQEventPublisher struct {
	mu     sync.Mutex // amqp.Channel нельзя использовать из нескольких горутин одновременно
	ch     *amqp.Channel
	logger *zap.Logger
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)

// NewRabbitMQEventPublisher opens a channel and declares the exchange. Declaring is idempotent.
func NewRabbitMQEventPublisher(conn *amqp.Connection, logger *zap.Logger) (*RabbitMQEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	logger.Info("Letter events exchange declared", zap.String("exchange", ExchangeLetterEvents))
	return &RabbitMQEventPublisher{ch: ch, logger: logger.Named("EventPublisher")}, nil
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeLetterEvents,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange '%s': %w", ExchangeLetterEvents, err)
	}
	return nil
}

func (p *RabbitMQEventPublisher) PublishResponseRecorded(ctx context.Context, event domain.ResponseRecordedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal response recorded event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		ExchangeLetterEvents,
		"", // routing key (не используется для fanout)
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         EventTypeResponseRecorded,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish response recorded event", zap.Int64("response_id", event.ResponseID), zap.Error(err))
		return fmt.Errorf("failed to publish response recorded event: %w", err)
	}
	p.logger.Debug("Response recorded event published", zap.Int64("response_id", event.ResponseID))
	return nil
}

func (p *RabbitMQEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

// NoopEventPublisher is used when no broker is configured.
type NoopEventPublisher struct {
	logger *zap.Logger
}

func NewNoopEventPublisher(logger *zap.Logger) *NoopEventPublisher {
	return &NoopEventPublisher{logger: logger.Named("NoopEventPublisher")}
}

func (p *NoopEventPublisher) PublishResponseRecorded(_ context.Context, event domain.ResponseRecordedEvent) error {
	p.logger.Debug("Broker disabled, event dropped", zap.Int64("response_id", event.ResponseID))
	return nil
}
