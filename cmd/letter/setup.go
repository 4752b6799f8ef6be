package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"valentine-server/internal/config"
	"valentine-server/internal/submission"

	"github.com/rs/zerolog"
)

// loadClient reads the config and builds the submission client.
// Логи пишутся в файл: терминал занят интерфейсом.
func loadClient() (*config.ClientConfig, *submission.HTTPClient, io.Closer, error) {
	cfg, err := config.LoadClientConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(logFile).Level(level).With().Timestamp().Str("component", "letter-cli").Logger()

	client := submission.NewHTTPClient(cfg.ServerURL,
		submission.WithTimeout(cfg.SubmitTimeout),
		submission.WithLogger(logger),
	)
	logger.Info().Str("server", cfg.ServerURL).Str("session_key", client.SessionKey()).Msg("Client configured")
	return cfg, client, logFile, nil
}
