// Package service implements recording answers: idempotency, storage, events, metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"valentine-server/internal/domain"
	"valentine-server/internal/messaging"
	"valentine-server/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	responsesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "letter_responses_recorded_total",
		Help: "Answers stored, by answer value.",
	}, []string{"answer"})
	responsesReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "letter_responses_replayed_total",
		Help: "Submissions answered from the idempotency store.",
	})
	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "letter_event_publish_failures_total",
		Help: "Response recorded events that could not be published.",
	})
)

// ResponseService определяет бизнес-логику сохранения ответов.
type ResponseService interface {
	// SubmitResponse stores the answer. With a non-empty idempotencyKey a replay returns
	// the first record and replayed=true instead of creating a new row.
	SubmitResponse(ctx context.Context, answer bool, idempotencyKey string) (resp *domain.Response, replayed bool, err error)
	// Health reports whether storage is reachable.
	Health(ctx context.Context) error
}

type responseService struct {
	repo           repository.ResponseRepository
	idempotency    repository.IdempotencyStore
	publisher      messaging.EventPublisher
	publishTimeout time.Duration
	logger         *zap.Logger
}

var _ ResponseService = (*responseService)(nil)

// NewResponseService: idempotency может быть nil, тогда ключ игнорируется.
func NewResponseService(
	repo repository.ResponseRepository,
	idempotency repository.IdempotencyStore,
	publisher messaging.EventPublisher,
	publishTimeout time.Duration,
	logger *zap.Logger,
) ResponseService {
	return &responseService{
		repo:           repo,
		idempotency:    idempotency,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		logger:         logger.Named("ResponseService"),
	}
}

func (s *responseService) SubmitResponse(ctx context.Context, answer bool, idempotencyKey string) (*domain.Response, bool, error) {
	log := s.logger.With(zap.Bool("answer", answer), zap.String("idempotency_key", idempotencyKey))
	useKey := idempotencyKey != "" && s.idempotency != nil

	if useKey {
		prev, err := s.idempotency.Reserve(ctx, idempotencyKey)
		switch {
		case errors.Is(err, domain.ErrSubmissionInFlight):
			log.Warn("Submission with the same key is still in flight")
			return nil, false, err
		case err != nil:
			return nil, false, fmt.Errorf("ошибка проверки idempotency key: %w", err)
		case prev != nil:
			log.Info("Replaying stored response", zap.Int64("response_id", prev.ID))
			responsesReplayed.Inc()
			return prev, true, nil
		}
	}

	resp, err := s.repo.Create(ctx, answer)
	if err != nil {
		if useKey {
			if relErr := s.idempotency.Release(context.WithoutCancel(ctx), idempotencyKey); relErr != nil {
				log.Error("Failed to release idempotency key", zap.Error(relErr))
			}
		}
		return nil, false, fmt.Errorf("ошибка сохранения ответа: %w", err)
	}
	log = log.With(zap.Int64("response_id", resp.ID))

	if useKey {
		// запись уже есть, ошибку стора только логируем
		if err := s.idempotency.Complete(context.WithoutCancel(ctx), idempotencyKey, resp); err != nil {
			log.Error("Failed to store idempotency record", zap.Error(err))
		}
	}

	responsesRecorded.WithLabelValues(strconv.FormatBool(resp.Answer)).Inc()
	s.publish(ctx, resp, idempotencyKey, log)

	log.Info("Response recorded")
	return resp, false, nil
}

func (s *responseService) publish(ctx context.Context, resp *domain.Response, key string, log *zap.Logger) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishResponseRecorded(pubCtx, domain.NewResponseRecordedEvent(resp, key)); err != nil {
		eventPublishFailures.Inc()
		log.Error("Failed to publish response recorded event", zap.Error(err))
	}
}

func (s *responseService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
