package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"milksync/internal/amqp"
	"milksync/internal/cli"
	"milksync/internal/config"
	applog "milksync/internal/log"
	"milksync/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConsumerConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentAMQP)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("milk-events stopped with error", applog.FieldError, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	if !cfg.EventsEnabled() {
		return errors.New("AMQP_URL is not set")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	events := worker.NewEventWorker()

	logger.Info("Starting milk-events consumer",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	defer events.LogSummary(context.WithoutCancel(ctx))

	return cli.RunServices(ctx, logger, cfg.ShutdownTimeout, cli.Service{
		Name: "consumer",
		Run: func(ctx context.Context) error {
			return amqpClient.ConsumeDeliverySynced(ctx, events.HandleDeliverySynced)
		},
	})
}
