// Package config loads the process configuration from YAML files, with a
// local overlay for values that must not be committed.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// listen address, e.g. ":8080"
	Address string `yaml:"address" validate:"required"`
	// origins allowed to call cross-origin; empty disables CORS entirely
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	UserAgent        string   `yaml:"user_agent"`
	// seconds between eviction sweeps
	SessionCleanupInterval int `yaml:"session_cleanup_interval" validate:"gt=0"`
	// seconds a session stays valid after login
	SessionDuration int `yaml:"session_duration" validate:"gt=0"`
	// per-request deadline for outbound calls, seconds
	RequestTimeout int `yaml:"request_timeout" validate:"gt=0"`
	// usernames must match to be allowed to log in
	UsernamePattern string `yaml:"username_pattern" validate:"required"`
	ProviderBaseURL string `yaml:"provider_base_url" validate:"omitempty,http_url"`
	CredentialFile  string `yaml:"credential_file"`
	DocsEnabled     bool   `yaml:"docs_enabled"`
}

func Default() Config {
	return Config{
		Address:                ":8080",
		SessionCleanupInterval: 60,
		SessionDuration:        3600,
		RequestTimeout:         15,
		UsernamePattern:        `^[0-9]{1,10}$`,
		CredentialFile:         "local.credential.json",
	}
}

// Load reads and overlays the given files in order (later files win) and
// validates the result. Missing files are skipped, so a bare default
// configuration is possible.
func Load(paths ...string) (*Config, error) {
	cfg := Default()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("Config file not found", "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config file %s: %w", path, err)
		}
		slog.Info("Loaded config file", "path", path)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if _, err := regexp.Compile(cfg.UsernamePattern); err != nil {
		return nil, fmt.Errorf("username_pattern: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionDuration) * time.Second
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.SessionCleanupInterval) * time.Second
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
