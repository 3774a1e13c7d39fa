// Package cli implements the penny command surface. Each command group
// lives in its own file; this one holds the shared process bootstrap.
package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielgermany/penny-cli/internal/ai"
	"github.com/danielgermany/penny-cli/internal/config"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// SetupLogger initializes structured logging at the configured level and
// installs it as the default logger.
func SetupLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: l,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are ignored
// silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting the
// process on failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage opens the SQLite database and applies pending migrations,
// exiting the process on failure.
func OpenStorage(logger *slog.Logger, cfg *config.Config) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	return repo
}

// NewAssistant builds the language-model client. A missing API key or a
// failed handshake only disables the assistant; every command still works on
// rules and the heuristic parser.
func NewAssistant(ctx context.Context, cfg *config.Config) *ai.Client {
	client, err := ai.NewClient(ctx, cfg.AIModel, cfg.AITimeout)
	if err != nil {
		slog.WarnContext(ctx, "AI assistant unavailable", "error", err)
		return nil
	}
	return client
}

// RunTimeout bounds one command invocation end to end.
const RunTimeout = 2 * time.Minute
