// Package database opens the PostgreSQL pool and the Redis client with retries.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Retry задаёт число попыток подключения и паузу между ними.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

func (r Retry) normalized() Retry {
	if r.Attempts < 1 {
		r.Attempts = 1
	}
	if r.Delay <= 0 {
		r.Delay = 3 * time.Second
	}
	return r
}

// PostgresConfig содержит настройки для подключения к PostgreSQL.
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	IdleTimeout time.Duration
	Retry       Retry
}

// NewPostgresPool creates a pgx pool and pings it, retrying until the database answers
// or the attempts run out.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	retry := cfg.Retry.normalized()
	logger.Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", retry.Attempts), zap.Duration("retry_delay", retry.Delay))

	var lastErr error
	for attempt := 1; attempt <= retry.Attempts; attempt++ {
		pool, err := connectPostgres(ctx, poolConfig)
		if err == nil {
			logger.Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}
		lastErr = err
		logger.Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.Attempts),
			zap.Error(err),
		)
		if attempt < retry.Attempts {
			if err := sleep(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", retry.Attempts, lastErr)
}

func connectPostgres(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create postgres connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping postgres database: %w", err)
	}
	return pool, nil
}

// RedisConfig содержит настройки для подключения к Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Retry    Retry
}

// NewRedisClient creates a Redis client and pings it with the same retry policy as Postgres.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	retry := cfg.Retry.normalized()
	logger.Info("Attempting to connect and ping Redis", zap.String("address", opts.Addr), zap.Int("db", opts.DB))

	var lastErr error
	for attempt := 1; attempt <= retry.Attempts; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.Attempts),
			zap.Error(err),
		)
		if attempt < retry.Attempts {
			if err := sleep(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", retry.Attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
