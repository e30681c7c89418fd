// Package cli provides common CLI initialization utilities shared by
// cmd/milk-sync and cmd/milk-events.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"milksync/internal/config"
	applog "milksync/internal/log"
)

// SetupLogger builds the process logger from the configured level and format
// and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logCfg := applog.DefaultConfig()
	logCfg.Component = component
	if cfg != nil {
		level, err := applog.ParseLevel(cfg.LogLevel)
		if err == nil {
			logCfg.Level = level
		}
		logCfg.Format = cfg.LogFormat
	}
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it for the HTTP
// server. It exits the process when validation fails.
func LoadAndValidateConfig() *config.Config {
	return loadConfig((*config.Config).Validate)
}

// LoadAndValidateConsumerConfig loads configuration and validates only what
// the event consumer uses. It exits the process when validation fails.
func LoadAndValidateConsumerConfig() *config.Config {
	return loadConfig((*config.Config).ValidateConsumer)
}

func loadConfig(validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger := SetupLogger(nil, applog.ComponentApp)
		logger.Error("Configuration validation failed",
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Service is a long-running component. Run blocks until the service stops;
// Shutdown asks it to stop within the context deadline.
type Service struct {
	Name     string
	Run      func(ctx context.Context) error
	Shutdown func(ctx context.Context) error
}

// RunServices runs every service until ctx is cancelled or one of them
// fails, then shuts all of them down within timeout.
func RunServices(ctx context.Context, logger *applog.Logger, timeout time.Duration, services ...Service) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, svc := range services {
		g.Go(func() error {
			logger.InfoContext(gctx, "Service starting", "service", svc.Name)
			err := svc.Run(gctx)
			if gctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = fmt.Errorf("%s exited unexpectedly", svc.Name)
			}
			logger.ErrorContext(gctx, "Service stopped with error",
				"service", svc.Name,
				applog.FieldError, err)
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "Shutting down",
			applog.FieldOperation, applog.OpShutdown,
			"timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		for _, svc := range services {
			if svc.Shutdown == nil {
				continue
			}
			if err := svc.Shutdown(shutdownCtx); err != nil {
				logger.WarnContext(shutdownCtx, "Service shutdown error",
					"service", svc.Name,
					applog.FieldError, err)
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	if err == nil {
		logger.InfoContext(ctx, "Shutdown complete", applog.FieldOperation, applog.OpShutdown)
	}
	return err
}
