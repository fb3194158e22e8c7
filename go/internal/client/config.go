package client

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/autokat/go/internal/channel"
	"github.com/mcdev12/autokat/go/internal/clock"
	"github.com/mcdev12/autokat/go/internal/input"
	"gopkg.in/yaml.v3"
)

// Config holds client settings. Values come from an optional YAML file and
// are overridden by AUTOKAT_* environment variables.
type Config struct {
	// PageURL stands in for the URL of the hosting page: its host gives the
	// server endpoint and its query the debug and color options.
	PageURL        string        `yaml:"page_url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	Refresh        time.Duration `yaml:"refresh"`
	Headless       bool          `yaml:"headless"`
	ClientID       string        `yaml:"client_id"`
	NATSURL        string        `yaml:"nats_url"`
	LogLevel       string        `yaml:"log_level"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		PageURL:        "http://localhost:8000/",
		ReconnectDelay: channel.DefaultReconnectDelay,
		Refresh:        clock.DefaultRefresh,
		LogLevel:       "info",
	}
}

// NewConfigFromEnv loads the file named by AUTOKAT_CONFIG, if any, then
// applies environment overrides.
func NewConfigFromEnv() (Config, error) {
	return LoadConfig(getEnv("AUTOKAT_CONFIG", ""))
}

// LoadConfig reads path (skipped when empty) over the defaults and applies
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.PageURL = getEnv("AUTOKAT_PAGE_URL", cfg.PageURL)
	cfg.ReconnectDelay = getEnvAsDuration("AUTOKAT_RECONNECT_DELAY", cfg.ReconnectDelay)
	cfg.Refresh = getEnvAsDuration("AUTOKAT_REFRESH", cfg.Refresh)
	cfg.Headless = getEnvAsBool("AUTOKAT_HEADLESS", cfg.Headless)
	cfg.ClientID = getEnv("AUTOKAT_CLIENT_ID", cfg.ClientID)
	cfg.NATSURL = getEnv("AUTOKAT_NATS_URL", cfg.NATSURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	return cfg, nil
}

// Endpoint returns the websocket URL derived from PageURL.
func (c Config) Endpoint() (string, error) {
	return channel.EndpointFromPage(c.PageURL)
}

// Options returns the page options carried in PageURL.
func (c Config) Options() (input.Options, error) {
	return input.OptionsFromPage(c.PageURL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
