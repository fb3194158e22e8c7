package devserver

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds the dev server process settings.
type Config struct {
	Port         string
	ScenarioPath string
	// Tick overrides the scenario tick when positive.
	Tick     time.Duration
	LogLevel string
}

// NewConfigFromEnv reads DEVSERVER_* variables.
func NewConfigFromEnv() Config {
	return Config{
		Port:         getEnv("DEVSERVER_PORT", "8000"),
		ScenarioPath: getEnv("DEVSERVER_SCENARIO", ""),
		Tick:         getEnvAsDuration("DEVSERVER_TICK", 0),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// Scenario loads the configured scenario and applies the tick override.
func (c Config) Scenario() (Scenario, error) {
	sc, err := LoadScenario(c.ScenarioPath)
	if err != nil {
		return Scenario{}, err
	}
	if c.Tick > 0 {
		sc.Tick = c.Tick
	}
	return sc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}
