package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-backoffice/internal/config"
	"go-backoffice/internal/events"
	"go-backoffice/internal/messaging/kafka/consumer"
	"go-backoffice/internal/shared/connection"

	"go.uber.org/zap"
)

// RunConsumer renders payslips for paid periods until SIGINT or SIGTERM.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

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

	// No summary cache here: payslip generation never reads it.
	payrollService, err := newPayrollService(cfg, sqlDB, gormDB, nil, logger)
	if err != nil {
		return err
	}

	reader := consumer.NewReader([]string{cfg.KafkaBroker}, cfg.Payroll.PayslipConsumerGroupID, events.PayrollPeriodPaidTopic)
	defer reader.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	consumer.ConsumePayrollPaid(ctx, reader, payrollService, logger)

	logger.Info("consumer shut down")
	return nil
}
