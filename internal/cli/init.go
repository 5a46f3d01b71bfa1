// Package cli provides common CLI initialization utilities and the terminal
// rendering used by the expenses command.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expenses/internal/config"
	"expenses/internal/log"
)

// Overrides carries command-line flags that take precedence over the
// environment. Empty fields leave the loaded value untouched.
type Overrides struct {
	Backend   string
	DBPath    string
	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads configuration from the environment, applies flag
// overrides and validates the result.
func LoadConfig(o Overrides) (*config.Config, error) {
	cfg := config.Load()
	if o.Backend != "" {
		cfg.DataBackend = o.Backend
	}
	if o.DBPath != "" {
		cfg.SQLiteDBPath = config.ExpandPath(o.DBPath)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg, writing to stderr so
// command output on stdout stays clean, and installs it as the slog default.
func SetupLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
