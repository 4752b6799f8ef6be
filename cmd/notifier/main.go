package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"valentine-server/internal/config"
	"valentine-server/internal/messaging"
	"valentine-server/internal/notification"
	"valentine-server/pkg/logger"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "notifier.yml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.LoadNotifierConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zl := logger.MustNew(logger.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
		Service:  "letter-notifier",
		Global:   true,
	})
	defer func() { _ = zl.Sync() }()
	sugar := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Подключение к RabbitMQ ---
	rabbitConn, err := messaging.ConnectRabbitMQ(ctx, cfg.RabbitMQ.URI, 50, 5*time.Second, zl)
	if err != nil {
		sugar.Fatalf("Не удалось подключиться к RabbitMQ: %v", err)
	}
	defer rabbitConn.Close()

	// --- Отправители ---
	fcmSender, err := notification.NewFCMSender(ctx, cfg.FCM, zl)
	if err != nil {
		sugar.Fatalf("Ошибка инициализации FCM Sender: %v", err)
	}
	if fcmSender == nil && cfg.UseStubSenders {
		sugar.Warn("FCM Sender не инициализирован, используется заглушка.")
		fcmSender = notification.NewStubSender(notification.PlatformAndroid, zl)
	}

	apnsSender, err := notification.NewApnsSender(cfg.APNS, zl)
	if err != nil {
		sugar.Fatalf("Ошибка инициализации APNS Sender: %v", err)
	}
	if apnsSender == nil && cfg.UseStubSenders {
		sugar.Warn("APNS Sender не инициализирован, используется заглушка.")
		apnsSender = notification.NewStubSender(notification.PlatformIOS, zl)
	}

	notifier := notification.NewService(cfg.Devices(), zl, fcmSender, apnsSender)

	processor := messaging.NewProcessor(notifier, cfg.HandleTimeout, zl)
	consumer := messaging.NewConsumer(rabbitConn, cfg.QueueName, cfg.WorkerConcurrency, processor, zl)

	healthSrv := startHealthCheckServer(cfg.HealthCheckPort, zl)

	consumerErrChan := make(chan error, 1)
	go func() {
		consumerErrChan <- consumer.Start(ctx)
	}()

	sugar.Info("Сервис уведомлений запущен.")
	select {
	case <-ctx.Done():
		sugar.Info("Получен сигнал завершения, начинаем остановку...")
	case err := <-consumerErrChan:
		sugar.Errorf("Консьюмер завершился, инициируем остановку: %v", err)
		consumerErrChan <- err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("Ошибка при остановке Health Check сервера: %v", err)
	}

	consumer.Stop()
	<-consumerErrChan
	sugar.Info("Сервис уведомлений успешно остановлен.")
}

// startHealthCheckServer отдаёт /health и /metrics.
func startHealthCheckServer(port string, logger *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	ginprometheus.NewPrometheus("notifier").Use(router)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Запуск Health Check сервера", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска Health Check сервера", zap.Error(err))
		}
	}()
	return srv
}
