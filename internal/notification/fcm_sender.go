package notification

import (
	"context"
	"fmt"

	"valentine-server/internal/config"

	firebase "firebase.google.com/go/v4"
	fcm "firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// fcmBatchLimit is the SendEachForMulticast limit per call.
const fcmBatchLimit = 500

type fcmSender struct {
	client *fcm.Client
	logger *zap.Logger
}

// NewFCMSender создает отправитель FCM по файлу ключа сервис-аккаунта.
// Возвращает nil, nil, если путь к ключу не указан.
func NewFCMSender(ctx context.Context, cfg config.FCMConfig, logger *zap.Logger) (PlatformSender, error) {
	if cfg.CredentialsPath == "" {
		logger.Warn("Путь к файлу ключа Firebase (FCM_CREDENTIALS_PATH) не указан, FCM sender не будет создан.")
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Firebase App из файла '%s': %w", cfg.CredentialsPath, err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения FCM Messaging client: %w", err)
	}

	logger.Info("FCM Sender успешно инициализирован", zap.String("credentials_path", cfg.CredentialsPath))
	return &fcmSender{client: client, logger: logger.Named("fcm_sender")}, nil
}

func (s *fcmSender) Send(ctx context.Context, tokens []string, notification PushNotification, data map[string]string) error {
	var failures int
	for start := 0; start < len(tokens); start += fcmBatchLimit {
		batch := tokens[start:min(start+fcmBatchLimit, len(tokens))]
		n, err := s.sendBatch(ctx, batch, notification, data)
		if err != nil {
			return err
		}
		failures += n
	}
	if failures > 0 {
		return fmt.Errorf("ошибка доставки %d из %d FCM сообщений", failures, len(tokens))
	}
	return nil
}

func (s *fcmSender) sendBatch(ctx context.Context, tokens []string, notification PushNotification, data map[string]string) (int, error) {
	message := &fcm.MulticastMessage{
		Tokens: tokens,
		Notification: &fcm.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data:    data,
		Android: &fcm.AndroidConfig{Priority: "high"},
	}

	br, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		s.logger.Error("Ошибка вызова SendEachForMulticast FCM", zap.Error(err))
		return 0, fmt.Errorf("ошибка отправки FCM: %w", err)
	}
	s.logger.Info("Результат отправки FCM",
		zap.Int("success_count", br.SuccessCount),
		zap.Int("failure_count", br.FailureCount),
	)

	for idx, resp := range br.Responses {
		if resp.Success {
			continue
		}
		token := "unknown"
		if idx < len(tokens) {
			token = tokens[idx]
		}
		if fcm.IsInvalidArgument(resp.Error) || fcm.IsUnregistered(resp.Error) || fcm.IsSenderIDMismatch(resp.Error) {
			s.logger.Warn("Невалидный FCM токен автора, обновите AUTHOR_DEVICES", zap.String("token", token), zap.Error(resp.Error))
		} else {
			s.logger.Error("Ошибка доставки FCM для токена", zap.String("token", token), zap.Error(resp.Error))
		}
	}
	return br.FailureCount, nil
}

func (s *fcmSender) Platform() string { return PlatformAndroid }
