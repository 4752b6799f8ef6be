package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// NotifierConfig is the configuration of cmd/notifier.
type NotifierConfig struct {
	RabbitMQ          RabbitMQConfig `yaml:"rabbitmq"`
	FCM               FCMConfig      `yaml:"fcm"`
	APNS              APNSConfig     `yaml:"apns"`
	Log               LogConfig      `yaml:"log"`
	QueueName         string         `yaml:"queue_name" env:"NOTIFIER_QUEUE_NAME" env-default:"author_notifications"`
	WorkerConcurrency int            `yaml:"worker_concurrency" env:"WORKER_CONCURRENCY" env-default:"4"`
	HandleTimeout     time.Duration  `yaml:"handle_timeout" env:"HANDLE_TIMEOUT" env-default:"30s"`
	HealthCheckPort   string         `yaml:"health_check_port" env:"HEALTH_CHECK_PORT" env-default:"8088"`
	// Токены устройств автора письма в виде "android:<token>" или "ios:<token>"
	AuthorDevices []string `yaml:"author_devices" env:"AUTHOR_DEVICES" env-separator:","`
	// Без ключей FCM/APNS используются заглушки, которые только логируют
	UseStubSenders bool `yaml:"use_stub_senders" env:"USE_STUB_SENDERS" env-default:"false"`
}

type RabbitMQConfig struct {
	URI string `yaml:"uri" env:"RABBITMQ_URL" env-required:"true"`
}

type FCMConfig struct {
	CredentialsPath string `yaml:"credentials_path" env:"FCM_CREDENTIALS_PATH"`
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION" env-default:"false"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
}

// Device is one parsed AUTHOR_DEVICES entry.
type Device struct {
	Platform string
	Token    string
}

// Devices parses AuthorDevices, skipping malformed entries.
func (c *NotifierConfig) Devices() []Device {
	devices := make([]Device, 0, len(c.AuthorDevices))
	for _, raw := range c.AuthorDevices {
		platform, token, ok := strings.Cut(strings.TrimSpace(raw), ":")
		if !ok || token == "" {
			log.Printf("Предупреждение: пропущена некорректная запись устройства %q", raw)
			continue
		}
		devices = append(devices, Device{Platform: strings.ToLower(platform), Token: token})
	}
	return devices
}

// LoadNotifierConfig reads configPath if it exists, otherwise only the environment.
func LoadNotifierConfig(configPath string) (*NotifierConfig, error) {
	var cfg NotifierConfig
	if err := readCleanenv(configPath, &cfg); err != nil {
		return nil, err
	}
	log.Printf("Конфигурация успешно загружена. Queue: %s, devices: %d", cfg.QueueName, len(cfg.AuthorDevices))
	return &cfg, nil
}

func readCleanenv(configPath string, cfg any) error {
	if configPath != "" {
		err := cleanenv.ReadConfig(configPath, cfg)
		if err == nil {
			return nil
		}
		log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v. Попытка чтения из переменных окружения.", configPath, err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	return nil
}
