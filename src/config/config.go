// Package config loads the application configuration from an optional JSON
// file under the XDG config directory, with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config holds the connection and logging settings. Conversation-level
// preferences (model, streaming, output format) are persisted in the
// database instead so they follow the conversation data.
type Config struct {
	// BaseURL is the backend endpoint.
	BaseURL string `json:"base_url" validate:"required,url"`

	// AuthToken is sent as a bearer token when set.
	AuthToken string `json:"auth_token,omitempty"`

	// LogLevel controls file logging verbosity.
	LogLevel string `json:"log_level" validate:"required,oneof=debug info warn error"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  "http://localhost:8001",
		LogLevel: "info",
	}
}

var validate = validator.New()

// Load reads the configuration file at path, applies environment
// overrides, and validates the result. A missing file is not an error; the
// defaults are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON, creating the parent
// directory as needed.
func Save(cfg *Config, path string) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRDCHAT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("PRDCHAT_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("PRDCHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
