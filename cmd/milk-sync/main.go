package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"milksync/internal/amqp"
	"milksync/internal/backend"
	"milksync/internal/cli"
	"milksync/internal/config"
	apphttp "milksync/internal/http"
	applog "milksync/internal/log"
	"milksync/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("milk-sync stopped with error", applog.FieldError, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	// Events are optional; the service runs without them.
	var publisher services.DeliveryPublisher
	if cfg.EventsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				applog.FieldErrorType, applog.ErrorTypeNetwork,
				applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	layout := services.Layout{SheetName: cfg.GoogleSheetName, Schema: services.DefaultLayout().Schema}
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	},
		services.NewSyncService(res.Client, layout, publisher),
		services.NewSummaryService(res.Client, layout),
		res.Tokens,
	)

	logger.Info("Starting milk-sync server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"sheet", cfg.GoogleSheetName,
		"events", publisher != nil)

	return cli.RunServices(ctx, logger, cfg.ShutdownTimeout, cli.Service{
		Name: "http",
		Run: func(context.Context) error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		Shutdown: srv.Shutdown,
	})
}
