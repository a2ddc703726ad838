// Package config loads botstrings runtime settings from the environment.
//
// Values come from BOTSTRINGS_* variables. A .env file in the working
// directory is read first when present; variables already set in the
// environment take precedence over it. Command-line flags override
// everything loaded here.
//
//	BOTSTRINGS_BACKEND=openai
//	BOTSTRINGS_API_KEY=sk-...
//	BOTSTRINGS_MODEL=gpt-4o-mini
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when no files are given.
const DefaultEnvFile = ".env"

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the translation backend and marker settings.
type Config struct {
	// Backend selects the translation backend: google, openai or echo.
	Backend string `env:"BOTSTRINGS_BACKEND" envDefault:"google"`
	// SourceLang is the source language hint passed to the backend.
	SourceLang string `env:"BOTSTRINGS_SOURCE_LANG" envDefault:"auto"`
	// APIKey authenticates the openai backend.
	APIKey string `env:"BOTSTRINGS_API_KEY"`
	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string `env:"BOTSTRINGS_BASE_URL" envDefault:"https://api.openai.com/v1"`
	// Model is the chat model used by the openai backend.
	Model string `env:"BOTSTRINGS_MODEL" envDefault:"gpt-4o-mini"`
	// Proxy is an optional HTTP/HTTPS proxy for the openai backend.
	Proxy string `env:"BOTSTRINGS_PROXY"`
	// Timeout bounds a single backend request.
	Timeout time.Duration `env:"BOTSTRINGS_TIMEOUT" envDefault:"60s"`
	// MarkerMin is the shortest '@' run restored to a placeholder.
	MarkerMin int `env:"BOTSTRINGS_MARKER_MIN" envDefault:"1"`
}

// Load reads the given .env files (or DefaultEnvFile if none are given and
// it exists) and parses the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MarkerMin < 1 {
		return fmt.Errorf("%w: BOTSTRINGS_MARKER_MIN must be at least 1, got %d", ErrInvalidConfig, c.MarkerMin)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: BOTSTRINGS_TIMEOUT must not be negative, got %s", ErrInvalidConfig, c.Timeout)
	}
	return nil
}
