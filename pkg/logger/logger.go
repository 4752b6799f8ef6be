// Package logger builds the zap logger shared by the server and the notifier.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config описывает логгер одного процесса.
type Config struct {
	Level      string // debug, info, warn, error; неизвестный уровень = info
	Encoding   string // json или console
	OutputPath string // пусто = stdout
	// Service попадает в каждую запись полем "service".
	Service string
	// Global заменяет zap.L() и zap.S() построенным логгером.
	Global bool
}

func parseLevel(raw string) zap.AtomicLevel {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if raw == "" {
		return level
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		// логгера ещё нет, пишем в stderr
		fmt.Fprintf(os.Stderr, "Invalid log level %q, using 'info': %v\n", raw, err)
		level.SetLevel(zap.InfoLevel)
	}
	return level
}

// New создает zap.Logger с ISO8601 временем в поле "timestamp" и уровнями в верхнем регистре.
func New(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoding := strings.ToLower(cfg.Encoding)
	if encoding != "console" {
		encoding = "json"
	}
	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}

	zapConfig := zap.Config{
		Level:             parseLevel(cfg.Level),
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{outputPath},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Service != "" {
		zapConfig.InitialFields = map[string]any{"service": cfg.Service}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if cfg.Global {
		zap.ReplaceGlobals(logger)
	}
	return logger, nil
}

// MustNew is New for main packages: it exits the process when the logger cannot be built.
func MustNew(cfg Config) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return l
}
