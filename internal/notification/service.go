package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"valentine-server/internal/config"
	"valentine-server/internal/domain"
	"valentine-server/internal/messaging"

	"go.uber.org/zap"
)

// Service sends a push to every author device when a response is recorded.
type Service struct {
	devices map[string][]string // platform -> tokens
	senders map[string]PlatformSender
	logger  *zap.Logger
}

var _ messaging.EventHandler = (*Service)(nil)

// NewService groups devices by platform. Nil senders are skipped with a warning.
func NewService(devices []config.Device, logger *zap.Logger, senders ...PlatformSender) *Service {
	log := logger.Named("notification_service")
	s := &Service{
		devices: make(map[string][]string),
		senders: make(map[string]PlatformSender),
		logger:  log,
	}
	for _, sender := range senders {
		if sender == nil {
			continue
		}
		s.senders[sender.Platform()] = sender
	}
	for _, d := range devices {
		if _, ok := s.senders[d.Platform]; !ok {
			log.Warn("Нет отправителя для платформы устройства", zap.String("platform", d.Platform))
			continue
		}
		s.devices[d.Platform] = append(s.devices[d.Platform], d.Token)
	}
	return s
}

// Compose builds the push for a recorded response.
func Compose(event domain.ResponseRecordedEvent) (PushNotification, map[string]string) {
	n := PushNotification{Title: "💌 Valentine answer", Body: "They said YES! ❤️"}
	if !event.Answer {
		n.Body = "The answer was no."
	}
	data := map[string]string{
		"response_id": strconv.FormatInt(event.ResponseID, 10),
		"answer":      strconv.FormatBool(event.Answer),
		"recorded_at": event.RecordedAt.UTC().Format(time.RFC3339),
	}
	return n, data
}

func (s *Service) HandleResponseRecorded(ctx context.Context, event domain.ResponseRecordedEvent) error {
	log := s.logger.With(zap.Int64("response_id", event.ResponseID), zap.Bool("answer", event.Answer))
	if len(s.devices) == 0 {
		log.Warn("Нет устройств автора, уведомление не отправлено")
		return nil
	}

	notification, data := Compose(event)

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		sendErrors []error
	)
	for platform, tokens := range s.devices {
		sender := s.senders[platform]
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Отправка уведомления", zap.String("platform", platform), zap.Int("count", len(tokens)))
			if err := sender.Send(ctx, tokens, notification, data); err != nil {
				log.Error("Ошибка отправки", zap.String("platform", platform), zap.Error(err))
				mu.Lock()
				sendErrors = append(sendErrors, fmt.Errorf("%s: %w", platform, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(sendErrors) > 0 {
		return errors.Join(sendErrors...)
	}
	log.Info("Отправка уведомлений завершена успешно")
	return nil
}
