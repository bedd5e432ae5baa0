package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerAddr     string   `env:"CHATHUB_ADDR" envDefault:"localhost:8000"`
	AllowedOrigins []string `env:"CHATHUB_ALLOWED_ORIGINS" envSeparator:","`
	UploadDir      string   `env:"CHATHUB_UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadBytes int64    `env:"CHATHUB_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	DefaultRoom    string   `env:"CHATHUB_DEFAULT_ROOM" envDefault:"general"`
}

// FromEnv builds a config from environment variables. Values may be
// overridden by flags in main before validation.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload directory cannot be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if c.DefaultRoom == "" {
		return fmt.Errorf("default room cannot be empty")
	}

	return nil
}
