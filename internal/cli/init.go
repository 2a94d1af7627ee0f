// Package cli holds the startup and shutdown steps shared by cmd/wallet and
// cmd/wallet-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wallet/internal/config"
	"wallet/internal/log"
)

// SetupLogger builds the process logger at LOG_LEVEL and makes it the
// slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and runs the given checks,
// config.Validate when none are given. It exits the process on failure.
func LoadAndValidateConfig(logger *log.Logger, checks ...func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if len(checks) == 0 {
		checks = []func(*config.Config) error{(*config.Config).Validate}
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			logger.Error("Configuration validation failed", log.FieldError, err)
			os.Exit(1)
		}
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}

// GracefulShutdown runs each cleanup step in order with a shared deadline.
// Steps still run after the deadline passes so resources are released;
// their context is simply already expired.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, steps ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for i, step := range steps {
		if err := step(ctx); err != nil {
			logger.Warn("Shutdown step failed", "step", i, log.FieldError, err)
		}
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached")
		return
	}
	logger.Info("Shutdown complete")
}
