package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"matrixchat/internal/logger"
	"matrixchat/internal/relay"
)

// Config holds runtime wiring options for the relay and the chat client.
type Config struct {
	Home        string               `yaml:"home"` // profile directory, e.g. $HOME/.matrixchat
	Relay       relay.Config         `yaml:"relay"`
	Participant ParticipantConfig    `yaml:"participant"`
	Log         logger.Configuration `yaml:"log"`
}

// ParticipantConfig holds the chat client's defaults.
type ParticipantConfig struct {
	Relay       string        `yaml:"relay"` // host:port of the relay
	Name        string        `yaml:"name"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// DefaultConfig returns a config usable without any file.
func DefaultConfig() Config {
	return Config{
		Relay: relay.DefaultConfig(),
		Participant: ParticipantConfig{
			Relay:       "127.0.0.1:4567",
			DialTimeout: 10 * time.Second,
		},
		Log: logger.DefaultConfiguration(),
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// or a missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Check()
}

// Check validates the config.
func (c Config) Check() error {
	if c.Relay.AgreementAttempts < 1 {
		return fmt.Errorf("relay.agreement_attempts must be at least 1, got %d", c.Relay.AgreementAttempts)
	}
	if c.Relay.ExchangeTimeout <= 0 || c.Relay.RunTimeout <= 0 {
		return fmt.Errorf("relay timeouts must be positive")
	}
	return c.Log.Check()
}

// ResolveHome fills Home with $HOME/.matrixchat when unset and creates it.
func (c *Config) ResolveHome() error {
	if c.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.Home = filepath.Join(dir, ".matrixchat")
	}
	return os.MkdirAll(c.Home, 0o700)
}
