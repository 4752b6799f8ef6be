package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"valentine-server/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyKeyPrefix = "letter:idempotency:"
	pendingMarker        = "pending"
)

type redisIdempotencyStore struct {
	client     redis.UniversalClient
	pendingTTL time.Duration
	doneTTL    time.Duration
	logger     *zap.Logger
}

var _ IdempotencyStore = (*redisIdempotencyStore)(nil)

// NewRedisIdempotencyStore: pendingTTL ограничивает зависшую резервацию, doneTTL хранит готовую запись.
func NewRedisIdempotencyStore(client redis.UniversalClient, pendingTTL, doneTTL time.Duration, logger *zap.Logger) IdempotencyStore {
	return &redisIdempotencyStore{
		client:     client,
		pendingTTL: pendingTTL,
		doneTTL:    doneTTL,
		logger:     logger.Named("RedisIdempotencyStore"),
	}
}

func (s *redisIdempotencyStore) Reserve(ctx context.Context, key string) (*domain.Response, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	redisKey := idempotencyKeyPrefix + key

	ok, err := s.client.SetNX(ctx, redisKey, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		s.logger.Error("Failed to reserve idempotency key", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: reserve idempotency key: %v", domain.ErrStorage, err)
	}
	if ok {
		return nil, nil
	}

	val, err := s.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		// ключ истёк между SETNX и GET, пробуем ещё раз
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read idempotency key: %v", domain.ErrStorage, err)
	}
	if val == pendingMarker {
		return nil, domain.ErrSubmissionInFlight
	}

	var resp domain.Response
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		s.logger.Error("Corrupted idempotency record", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: decode idempotency record: %v", domain.ErrStorage, err)
	}
	return &resp, nil
}

func (s *redisIdempotencyStore) Complete(ctx context.Context, key string, r *domain.Response) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, idempotencyKeyPrefix+key, data, s.doneTTL).Err(); err != nil {
		s.logger.Error("Failed to store idempotency record", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: store idempotency record: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *redisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: release idempotency key: %v", domain.ErrStorage, err)
	}
	return nil
}
