package notification

import (
	"context"
	"fmt"
	"sync"

	"valentine-server/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
	"go.uber.org/zap"
)

type apnsSender struct {
	client *apns2.Client
	logger *zap.Logger
	topic  string
}

// NewApnsSender создает отправитель APNS по p8 ключу.
// Возвращает nil, nil, если конфигурация не полная.
func NewApnsSender(cfg config.APNSConfig, logger *zap.Logger) (PlatformSender, error) {
	if cfg.KeyPath == "" || cfg.KeyID == "" || cfg.TeamID == "" || cfg.Topic == "" {
		logger.Warn("APNS конфигурация не полная (KeyPath, KeyID, TeamID, Topic), APNS sender не будет создан.")
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа APNS из файла %s: %w", cfg.KeyPath, err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	logger.Info("APNS Sender успешно инициализирован",
		zap.String("key_id", cfg.KeyID),
		zap.String("team_id", cfg.TeamID),
		zap.String("topic", cfg.Topic),
		zap.Bool("production", cfg.Production),
	)
	return &apnsSender{client: client, logger: logger.Named("apns_sender"), topic: cfg.Topic}, nil
}

func (s *apnsSender) Send(ctx context.Context, tokens []string, notification PushNotification, data map[string]string) error {
	p := payload.NewPayload().
		AlertTitle(notification.Title).
		AlertBody(notification.Body).
		Sound("default")
	for k, v := range data {
		p.Custom(k, v)
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		failures   int
		firstError error
	)
	for _, deviceToken := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.client.PushWithContext(ctx, &apns2.Notification{
				DeviceToken: deviceToken,
				Topic:       s.topic,
				Payload:     p,
				Priority:    apns2.PriorityHigh,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				s.logger.Error("Ошибка вызова APNS PushWithContext", zap.String("token", deviceToken), zap.Error(err))
				failures++
				if firstError == nil {
					firstError = fmt.Errorf("apns send error: %w", err)
				}
			case !res.Sent():
				s.logger.Warn("APNS уведомление не отправлено",
					zap.String("token", deviceToken),
					zap.Int("status_code", res.StatusCode),
					zap.String("reason", res.Reason),
				)
				failures++
				if firstError == nil {
					firstError = fmt.Errorf("apns delivery failed: %s", res.Reason)
				}
			default:
				s.logger.Debug("APNS уведомление отправлено", zap.String("apns_id", res.ApnsID))
			}
		}()
	}
	wg.Wait()

	if failures > 0 {
		s.logger.Error("Завершено с ошибками APNS", zap.Int("failures", failures), zap.Int("total", len(tokens)))
		return firstError
	}
	return nil
}

func (s *apnsSender) Platform() string { return PlatformIOS }
