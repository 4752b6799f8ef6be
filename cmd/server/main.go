package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valentine-server/internal/config"
	ws "valentine-server/internal/delivery/websocket"
	"valentine-server/internal/handler"
	"valentine-server/internal/messaging"
	"valentine-server/internal/repository"
	"valentine-server/internal/service"
	"valentine-server/internal/web"
	"valentine-server/migrations"
	"valentine-server/pkg/database"
	"valentine-server/pkg/logger"
	"valentine-server/pkg/middleware"
	"valentine-server/pkg/migration"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.LoadServerConfig(*envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.MustNew(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "valentine-server",
		Global:   true,
	})
	defer func() { _ = log.Sync() }()
	log.Info("Configuration loaded", zap.String("env", cfg.Env), zap.String("storage", cfg.StorageDriver))

	policy, err := cfg.Letter.Policy()
	if err != nil {
		log.Fatal("Invalid letter configuration", zap.Error(err))
	}

	// baseCtx живёт до сигнала остановки
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	responseRepo, closeStorage, err := setupStorage(baseCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to set up storage", zap.Error(err))
	}
	defer closeStorage()

	// --- Optional Redis ---
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = database.NewRedisClient(baseCtx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Retry:    database.Retry{Attempts: cfg.ConnectAttempts, Delay: cfg.ConnectDelay},
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	var idempotency repository.IdempotencyStore
	if redisClient != nil {
		idempotency = repository.NewRedisIdempotencyStore(redisClient, cfg.IdempotencyPendingTTL, cfg.IdempotencyTTL, log)
	} else {
		log.Info("REDIS_ADDR not set, idempotency keys are kept in memory")
		idempotency = repository.NewMemoryIdempotencyStore(cfg.IdempotencyPendingTTL, cfg.IdempotencyTTL)
	}

	// --- Optional RabbitMQ ---
	var publisher messaging.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqConn, err := messaging.ConnectRabbitMQ(baseCtx, cfg.RabbitMQURL, cfg.ConnectAttempts, cfg.ConnectDelay, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		rabbitPublisher, err := messaging.NewRabbitMQEventPublisher(mqConn, log)
		if err != nil {
			log.Fatal("Failed to create event publisher", zap.Error(err))
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher
	} else {
		log.Info("RABBITMQ_URL not set, response events are only logged")
		publisher = messaging.NewNoopEventPublisher(log)
	}

	// --- Dependency Injection ---
	responseService := service.NewResponseService(responseRepo, idempotency, publisher, cfg.PublishTimeout, log)
	letterHandler := handler.NewLetterHandler(responseService, log)
	sessions := ws.NewSessionManager(log)
	wsHandler := ws.NewHandler(baseCtx, sessions, responseService, ws.Config{
		Policy:         policy,
		SubmitTimeout:  cfg.Letter.SubmitTimeout,
		AllowedOrigins: cfg.GetAllowedOrigins(),
	}, log)

	renderer, err := web.NewTemplateRenderer(log, nil)
	if err != nil {
		log.Fatal("Failed to load templates", zap.Error(err))
	}

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.HTMLRender = renderer
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")
	// путь маршрута вместо URL, иначе 404 раздувают метрики
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		if route := c.FullPath(); route != "" {
			return route
		}
		return "unmatched"
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", handler.IdempotencyKeyHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	letterHandler.RegisterRoutes(router, newRateLimiter(cfg, redisClient, log), wsHandler.ServeWS)
	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-baseCtx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	// Shutdown не трогает hijacked соединения
	sessions.CloseAll()

	log.Info("Server exiting")
}

// setupStorage opens the configured backend, applies migrations and returns the repository.
func setupStorage(ctx context.Context, cfg *config.ServerConfig, log *zap.Logger) (repository.ResponseRepository, func(), error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
			DSN:         cfg.PostgresDSN(),
			MaxConns:    cfg.DBMaxConns,
			IdleTimeout: cfg.DBIdle,
			Retry:       database.Retry{Attempts: cfg.ConnectAttempts, Delay: cfg.ConnectDelay},
		}, log)
		if err != nil {
			return nil, nil, err
		}
		migrator := migration.NewPostgresMigrator(migration.Config{
			MigrationsFS:   migrations.FS,
			MigrationsPath: migrations.PostgresDir,
		}, pool, log)
		if err := migrator.Up(); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPgResponseRepository(pool, log), pool.Close, nil

	case config.StorageSQLite:
		migrator := migration.NewSQLiteMigrator(migration.Config{
			MigrationsFS:   migrations.FS,
			MigrationsPath: migrations.SQLiteDir,
		}, repository.SQLiteDSN(cfg.SQLitePath), log)
		if err := migrator.Up(); err != nil {
			return nil, nil, err
		}
		db, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using SQLite storage", zap.String("path", cfg.SQLitePath))
		return repository.NewSQLiteResponseRepository(db, log), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// newRateLimiter limits POST /api/response per client IP; Redis-backed when Redis is configured.
func newRateLimiter(cfg *config.ServerConfig, redisClient *redis.Client, log *zap.Logger) gin.HandlerFunc {
	var store ratelimit.Store
	if redisClient != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        cfg.RateLimitWindow,
			Limit:       cfg.RateLimitMax,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  cfg.RateLimitWindow,
			Limit: cfg.RateLimitMax,
		})
	}

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			log.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
