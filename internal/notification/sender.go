// Package notification delivers push notifications to the letter's author
// when a response is recorded.
package notification

import (
	"context"

	"go.uber.org/zap"
)

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// PushNotification is the visible part of a push.
type PushNotification struct {
	Title string
	Body  string
}

// PlatformSender определяет интерфейс для отправки на конкретную платформу (FCM/APNS).
type PlatformSender interface {
	Send(ctx context.Context, tokens []string, notification PushNotification, data map[string]string) error
	Platform() string
}

// --- Заглушка ---

type stubSender struct {
	platform string
	logger   *zap.Logger
}

// NewStubSender logs pushes instead of sending them. Used when credentials are absent.
func NewStubSender(platform string, logger *zap.Logger) PlatformSender {
	return &stubSender{platform: platform, logger: logger.Named("stub_" + platform + "_sender")}
}

func (s *stubSender) Send(_ context.Context, tokens []string, notification PushNotification, data map[string]string) error {
	s.logger.Info("ЗАГЛУШКА: отправка уведомления",
		zap.Int("token_count", len(tokens)),
		zap.String("title", notification.Title),
		zap.String("body", notification.Body),
		zap.Any("data", data),
	)
	return nil
}

func (s *stubSender) Platform() string { return s.platform }
