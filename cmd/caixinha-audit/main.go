package main

import (
	"context"
	"errors"
	"os"
	"time"

	"caixinha/internal/amqp"
	"caixinha/internal/cli"
	"caixinha/internal/log"
	"caixinha/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit consumer")
		os.Exit(1)
	}

	logger.Info("Starting caixinha-audit", log.FieldOperation, log.OpStartup,
		"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	auditor := worker.NewAuditWorker(logger, 10000, time.Hour)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		auditor.Report(context.Background())
		_ = client.Close()
	})

	go auditor.RunReports(ctx, 15*time.Minute)

	if err := client.ConsumeLedgerEvents(ctx, auditor.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Audit consumer stopped")
}
