package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-backoffice/internal/events"
	"go-backoffice/internal/payroll"
	payrollerrors "go-backoffice/internal/payroll/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PayslipGenerator is the part of payroll.Service the consumer drives.
type PayslipGenerator interface {
	GeneratePayslips(ctx context.Context, periodID string) (payroll.PayslipBatchResponse, error)
}

// PayslipHandler renders payslips for every period that reaches paid.
// Generation skips records that already have a payslip, so redelivery is safe.
func PayslipHandler(svc PayslipGenerator, logger *zap.Logger) HandlerFunc {
	log := logger.Named("kafka.consumer.payroll_payslip")

	return func(ctx context.Context, msg kafkago.Message) error {
		var event events.PayrollPeriodEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return Permanent(err)
		}
		if event.EventType != events.PayrollPeriodPaid {
			return nil
		}

		resp, err := svc.GeneratePayslips(ctx, event.PeriodID)
		if err != nil {
			if errors.Is(err, payrollerrors.ErrPeriodNotFound) ||
				errors.Is(err, payrollerrors.ErrInvalidPeriodID) ||
				errors.Is(err, payrollerrors.ErrPayslipRequiresPaidPeriod) {
				return Permanent(err)
			}
			return err
		}

		log.Info("payroll payslips generated",
			zap.String("period_id", event.PeriodID),
			zap.Int("generated", resp.Generated),
			zap.Int("skipped", resp.Skipped),
		)
		return nil
	}
}

func ConsumePayrollPaid(ctx context.Context, reader MessageReader, svc PayslipGenerator, logger *zap.Logger) {
	Run(ctx, reader, PayslipHandler(svc, logger), logger.Named("kafka.consumer.payroll_paid"))
}
