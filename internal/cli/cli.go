// Package cli provides common CLI initialization utilities shared by
// cmd/flux, cmd/flux-worker and cmd/adduser.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"

	"flux/internal/config"
	applog "flux/internal/log"
)

// SetupLogger builds the process logger for component at the given level
// and installs it as the slog default. LOG_FORMAT=json switches to JSON.
func SetupLogger(level, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: component,
		Format:    os.Getenv("LOG_FORMAT"),
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment and runs every check in order, stopping
// at the first failure.
func LoadConfig(checks ...func(*config.Config) error) (*config.Config, error) {
	cfg := config.Load()
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate and ValidateWorker adapt the config methods for LoadConfig.
var (
	Validate       = (*config.Config).Validate
	ValidateWorker = (*config.Config).ValidateWorker
)

// MustLoadConfig is LoadConfig that exits the process on failure. The
// bootstrap logger is replaced by one at the configured level.
func MustLoadConfig(component string, checks ...func(*config.Config) error) (*config.Config, *applog.Logger) {
	cfg, err := LoadConfig(checks...)
	if err != nil {
		SetupLogger("info", component).Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, SetupLogger(cfg.LogLevel, component)
}

// PrintBanner writes name as ASCII art.
func PrintBanner(w io.Writer, name string) {
	fig := figure.NewFigure(name, "small", true)
	fmt.Fprintln(w, fig.String())
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT/SIGTERM or when stop is called;
// cleanup then runs with a timeout-bound context and done is closed after it
// returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (ctx context.Context, stop context.CancelFunc, done <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
			logger.Info("Shutdown requested")
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached", "timeout", timeout)
		} else {
			logger.Info("Shutdown complete")
		}
		close(finished)
	}()

	return ctx, cancel, finished
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
