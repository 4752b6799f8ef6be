// Package config loads settings for the server, the notifier and the terminal client.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"valentine-server/internal/letter"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`

	// Хранилище ответов: sqlite для локального запуска, postgres в docker-compose
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"letter.db"`

	DBHost     string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string        `envconfig:"DB_PORT" default:"5432"`
	DBUser     string        `envconfig:"DB_USER" default:"postgres"`
	DBName     string        `envconfig:"DB_NAME" default:"valentine"`
	DBSSLMode  string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdle     time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string `ignored:"true"`

	ConnectAttempts int           `envconfig:"CONNECT_ATTEMPTS" default:"10"`
	ConnectDelay    time.Duration `envconfig:"CONNECT_DELAY" default:"3s"`

	// Redis необязателен: без него идемпотентность и rate limit живут в памяти
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `ignored:"true"`

	// RabbitMQ необязателен: без него события только логируются
	RabbitMQURL    string        `envconfig:"RABBITMQ_URL"`
	PublishTimeout time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"3s"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:8080"`

	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMax    uint          `envconfig:"RATE_LIMIT_MAX" default:"10"`

	IdempotencyPendingTTL time.Duration `envconfig:"IDEMPOTENCY_PENDING_TTL" default:"30s"`
	IdempotencyTTL        time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	Letter LetterConfig
}

// LetterConfig переопределяет letter.DefaultPolicy. Переменные читаются с префиксом LETTER_.
type LetterConfig struct {
	EscalationThreshold int           `envconfig:"ESCALATION_THRESHOLD" default:"5"`
	CelebrationWindow   time.Duration `envconfig:"CELEBRATION_WINDOW" default:"3s"`
	RecordNegativeClick bool          `envconfig:"RECORD_NEGATIVE_CLICK" default:"false"`
	YesAfterEscalation  bool          `envconfig:"YES_AFTER_ESCALATION" default:"false"`
	SubmitTimeout       time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"15s"`
}

// Policy builds a validated machine policy.
func (c LetterConfig) Policy() (letter.Policy, error) {
	p := letter.DefaultPolicy()
	p.EscalationThreshold = c.EscalationThreshold
	p.CelebrationWindow = c.CelebrationWindow
	p.RecordNegativeClick = c.RecordNegativeClick
	p.YesAfterEscalation = c.YesAfterEscalation
	if err := p.Validate(); err != nil {
		return letter.Policy{}, fmt.Errorf("invalid letter policy: %w", err)
	}
	return p, nil
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *ServerConfig) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// PostgresDSN собирает URL подключения; пароль экранируется.
func (c *ServerConfig) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func (c *ServerConfig) validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite storage"))
		}
	case StoragePostgres:
		if c.DBPassword == "" {
			errs = append(errs, errors.New("db_password secret (or DB_PASSWORD) is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.RateLimitMax == 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be positive"))
	}
	return errors.Join(errs...)
}

// LoadServerConfig loads configuration from environment variables and secrets.
func LoadServerConfig(envFilePath string) (*ServerConfig, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	if v, ok := readSecretOrEnv("db_password", "DB_PASSWORD"); ok {
		cfg.DBPassword = v
	}
	if v, ok := readSecretOrEnv("redis_password", "REDIS_PASSWORD"); ok {
		cfg.RedisPassword = v
	} else if cfg.RedisAddr != "" {
		log.Println("Optional secret 'redis_password' not found. Assuming no password.")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
