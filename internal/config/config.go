package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBPath string

	// Session
	SessionFile string

	// AI assistant
	AIModel   string
	AITimeout time.Duration

	// Recurring-charge detection
	MinOccurrences int
	AmountSwing    float64 // relative amount variation tolerated before confidence penalty
	LookaheadDays  int

	// Misc
	Currency string
	LogLevel string
}

func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultDir := filepath.Join(home, ".penny")

	return &Config{
		DBPath:      getEnv("PENNY_DB_PATH", filepath.Join(defaultDir, "penny.db")),
		SessionFile: getEnv("PENNY_SESSION_FILE", filepath.Join(defaultDir, "session.json")),

		AIModel:   getEnv("PENNY_AI_MODEL", "gemini-2.0-flash"),
		AITimeout: getEnvDuration("PENNY_AI_TIMEOUT", 30*time.Second),

		MinOccurrences: getEnvInt("PENNY_MIN_OCCURRENCES", 2),
		AmountSwing:    getEnvFloat("PENNY_AMOUNT_SWING", 0.5),
		LookaheadDays:  getEnvInt("PENNY_LOOKAHEAD_DAYS", 7),

		Currency: getEnv("PENNY_CURRENCY", "USD"),
		LogLevel: getEnv("PENNY_LOG_LEVEL", "warn"),
	}
}

// Validate checks the configuration and returns a single error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if c.SessionFile == "" {
		errs = append(errs, "session file path cannot be empty")
	}

	if c.MinOccurrences < 2 {
		errs = append(errs, fmt.Sprintf("invalid minimum occurrences %d: must be at least 2", c.MinOccurrences))
	}

	if c.AmountSwing <= 0 || c.AmountSwing > 1 {
		errs = append(errs, fmt.Sprintf("invalid amount swing %v: must be in (0, 1]", c.AmountSwing))
	}

	if c.LookaheadDays < 1 || c.LookaheadDays > 365 {
		errs = append(errs, fmt.Sprintf("invalid lookahead days %d: must be between 1 and 365", c.LookaheadDays))
	}

	if c.AITimeout < time.Second || c.AITimeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid AI timeout %v: must be between 1s and 5m", c.AITimeout))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// SlogLevel maps the configured log level onto a slog level string consumed
// by the CLI bootstrap.
func (c *Config) SlogLevel() string {
	return c.LogLevel
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
