// Package config provides configuration file support for the recorder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/recvault/recvault/pkg/webhook"
)

// FileName is the configuration file stored in the recordings root.
const FileName = "recvault.yaml"

// DefaultRetentionDays is the retention window applied when neither the
// config file nor the caller supplies one.
const DefaultRetentionDays = 90

// Config represents the recorder configuration.
type Config struct {
	RetentionDays int            `yaml:"retention_days"`
	Logging       LoggingConfig  `yaml:"logging"`
	Webhooks      WebhooksConfig `yaml:"webhooks"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WebhooksConfig configures lifecycle-event notifications. RetryDelay is a
// duration string ("5s", "1m").
type WebhooksConfig struct {
	Enabled    bool         `yaml:"enabled"`
	MaxRetries int          `yaml:"max_retries"`
	RetryDelay string       `yaml:"retry_delay"`
	Hooks      []HookConfig `yaml:"hooks"`
}

// HookConfig is a single webhook endpoint.
type HookConfig struct {
	URL     string   `yaml:"url"`
	Secret  string   `yaml:"secret,omitempty"`
	Events  []string `yaml:"events"`
	Enabled bool     `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		RetentionDays: DefaultRetentionDays,
		Logging: LoggingConfig{
			Level: "info",
		},
		Webhooks: WebhooksConfig{
			Enabled:    false,
			MaxRetries: 3,
			RetryDelay: "5s",
		},
	}
}

// Load loads configuration from <root>/recvault.yaml. Returns the default
// config if the file doesn't exist.
func Load(root string) (*Config, error) {
	cfg := Default()
	cfgPath := filepath.Join(root, FileName)

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	return cfg, nil
}

// Save writes configuration to <root>/recvault.yaml.
func Save(root string, cfg *Config) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(root, FileName), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WebhookConfig converts the yaml form into the webhook client configuration.
func (w WebhooksConfig) WebhookConfig() *webhook.Config {
	cfg := webhook.DefaultConfig()
	cfg.Enabled = w.Enabled
	if w.MaxRetries > 0 {
		cfg.MaxRetries = w.MaxRetries
	}
	if w.RetryDelay != "" {
		if d, err := time.ParseDuration(w.RetryDelay); err == nil {
			cfg.RetryDelay = d
		}
	}
	for _, h := range w.Hooks {
		events := make([]webhook.EventType, 0, len(h.Events))
		for _, e := range h.Events {
			events = append(events, webhook.EventType(e))
		}
		cfg.Hooks = append(cfg.Hooks, webhook.HookConfig{
			URL:     h.URL,
			Secret:  h.Secret,
			Events:  events,
			Enabled: h.Enabled,
		})
	}
	return cfg
}
