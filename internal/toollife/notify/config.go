package notify

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SMTPConfig configures the email channel.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PushConfig configures the push channel.
type PushConfig struct {
	Endpoint  string `yaml:"endpoint"`
	ServerKey string `yaml:"server_key"`
}

// Config defines notification gateway configuration.
type Config struct {
	SMTP            SMTPConfig    `yaml:"smtp"`
	Push            PushConfig    `yaml:"push"`
	EmailTemplate   string        `yaml:"email_template"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}

// LoadConfig loads gateway config from yaml (NOTIFY_CONFIG) or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenvIntDefault("SMTP_PORT", 587),
			From:     os.Getenv("SMTP_FROM"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		Push: PushConfig{
			Endpoint:  getenvDefault("FCM_ENDPOINT", DefaultFCMEndpoint),
			ServerKey: os.Getenv("FCM_SERVER_KEY"),
		},
		DispatchTimeout: getenvDuration("NOTIFY_DISPATCH_TIMEOUT", 5*time.Second),
	}

	if path := os.Getenv("NOTIFY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Push.Endpoint == "" {
		cfg.Push.Endpoint = DefaultFCMEndpoint
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 5 * time.Second
	}
	return cfg, nil
}

// EmailConfigured reports whether the email channel can be built.
func (c Config) EmailConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}

// PushConfigured reports whether the push channel can be built.
func (c Config) PushConfigured() bool {
	return c.Push.ServerKey != ""
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
