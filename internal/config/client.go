package config

import "time"

// ClientConfig is the configuration of the terminal client (cmd/letter).
type ClientConfig struct {
	ServerURL     string        `yaml:"server_url" env:"LETTER_SERVER_URL" env-default:"http://localhost:8080"`
	SubmitTimeout time.Duration `yaml:"submit_timeout" env:"LETTER_SUBMIT_TIMEOUT" env-default:"15s"`
	LogFile       string        `yaml:"log_file" env:"LETTER_LOG_FILE" env-default:"letter.log"`
	LogLevel      string        `yaml:"log_level" env:"LETTER_LOG_LEVEL" env-default:"info"`
	Seed          uint64        `yaml:"seed" env:"LETTER_SEED"`
	Letter        struct {
		EscalationThreshold int           `yaml:"escalation_threshold" env:"LETTER_ESCALATION_THRESHOLD" env-default:"5"`
		CelebrationWindow   time.Duration `yaml:"celebration_window" env:"LETTER_CELEBRATION_WINDOW" env-default:"3s"`
		RecordNegativeClick bool          `yaml:"record_negative_click" env:"LETTER_RECORD_NEGATIVE_CLICK" env-default:"false"`
		YesAfterEscalation  bool          `yaml:"yes_after_escalation" env:"LETTER_YES_AFTER_ESCALATION" env-default:"false"`
	} `yaml:"letter"`
}

// LetterConfig maps the client's letter section onto the shared policy settings.
func (c *ClientConfig) LetterConfig() LetterConfig {
	return LetterConfig{
		EscalationThreshold: c.Letter.EscalationThreshold,
		CelebrationWindow:   c.Letter.CelebrationWindow,
		RecordNegativeClick: c.Letter.RecordNegativeClick,
		YesAfterEscalation:  c.Letter.YesAfterEscalation,
		SubmitTimeout:       c.SubmitTimeout,
	}
}

func LoadClientConfig(configPath string) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := readCleanenv(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
