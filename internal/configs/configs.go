/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from environment variables, optionally seeded from a .env file in development.
They cover the running environment, the listen port, CORS allowed origins, log level, chat limits
and the profanity word list.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	// EnvDevelopment is the default environment; it relaxes origin checks and logs verbosely.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	minPort = 1024
	maxPort = 65535
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Chat Settings
	MaxMessageBytes int `env:"MAX_MESSAGE_BYTES" envDefault:"5000"`
	SendBufferSize  int `env:"SEND_BUFFER_SIZE" envDefault:"256"`

	// Moderation Settings
	ProfanityWords    []string `env:"PROFANITY_WORDS" envSeparator:","`
	ProfanityListFile string   `env:"PROFANITY_LIST_FILE"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}

// LoadConfig reads and validates the configuration from the process environment.
func LoadConfig() (*AppConfig, error) {
	return load(env.Options{})
}

// load parses with opts so tests can supply their own environment.
func load(opts env.Options) (*AppConfig, error) {
	cfg, err := env.ParseAsWithOptions[AppConfig](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.Environment == "" {
		cfg.Environment = EnvDevelopment
	}

	if cfg.Port < minPort || cfg.Port > maxPort {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, minPort, maxPort)
	}

	if cfg.MaxMessageBytes <= 0 {
		return nil, fmt.Errorf("MAX_MESSAGE_BYTES must be positive, got %d", cfg.MaxMessageBytes)
	}
	if cfg.SendBufferSize <= 0 {
		return nil, fmt.Errorf("SEND_BUFFER_SIZE must be positive, got %d", cfg.SendBufferSize)
	}

	cfg.AllowedOrigins = trimList(cfg.AllowedOrigins)
	cfg.ProfanityWords = trimList(cfg.ProfanityWords)

	return &cfg, nil
}

func trimList(items []string) []string {
	return lo.FilterMap(items, func(item string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(item)
		return trimmed, trimmed != ""
	})
}
