package messaging

import (
	"context"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConnectRabbitMQ dials the broker with retries and logs unexpected connection closes.
func ConnectRabbitMQ(ctx context.Context, rawURL string, attempts int, delay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	if attempts < 1 {
		attempts = 1
	}
	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", maskURL(rawURL)),
		zap.Int("max_retries", attempts),
		zap.Duration("retry_delay", delay),
	)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := amqp.Dial(rawURL)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				if closeErr, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1)); ok && closeErr != nil {
					logger.Error("RabbitMQ connection closed", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		lastErr = err
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", attempts, lastErr)
}

// maskURL убирает пароль из URL для логов.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
