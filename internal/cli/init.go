// Package cli provides the startup steps shared by every finmind command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finmind/internal/config"
	flog "finmind/internal/log"
	"finmind/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger at the configured level and sets it
// as the slog default.
func SetupLogger(cfg *config.Config, component string, out io.Writer) (*flog.Logger, error) {
	level, err := flog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := flog.New(flog.Config{Level: level, Component: component, Output: out})
	flog.SetDefault(logger)
	return logger, nil
}

// InitSQLite opens the SQLite repository at dbPath, running migrations.
func InitSQLite(logger *flog.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", flog.FieldError, err, "path", dbPath)
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	return repo, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The first
// signal is logged.
func SignalContext(parent context.Context, logger *flog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
