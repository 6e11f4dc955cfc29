package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-backoffice/internal/config"
	"go-backoffice/internal/messaging/kafka"
	"go-backoffice/internal/messaging/kafka/producer"
	"go-backoffice/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays outbox events to Kafka until SIGINT or SIGTERM.
func RunWorker(cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Postgres, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	producer.ProcessOutboxEvents(
		ctx,
		kafka.NewOutboxRepository(sqlDB),
		kafkaWriter,
		logger,
		cfg.OutboxPollInterval,
	)

	logger.Info("worker shut down")
	return nil
}
