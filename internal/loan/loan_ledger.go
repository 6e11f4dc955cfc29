package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	loanerrors "go-backoffice/internal/loan/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is the only writer of loan balances.
//
//go:generate mockgen -source=loan_ledger.go -destination=mock/loan_ledger_mock.go -package=mock
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	ApplyInstallment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) (EmployeeLoan, error)
}

type ledger struct {
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

func NewLedger(repo Repository, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("loan.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("loan.ledger")
	}
	return &ledger{repo: repo, now: time.Now, logger: l}
}

func (l *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{repo: l.repo.WithTx(tx), now: l.now, logger: l.logger}
}

func (l *ledger) ApplyInstallment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) (EmployeeLoan, error) {
	current, err := l.repo.FindByIDForUpdate(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeLoan{}, loanerrors.ErrLoanNotFound
		}
		return EmployeeLoan{}, err
	}

	next, err := Amortize(*current, amount, l.now().UTC())
	if err != nil {
		if errors.Is(err, loanerrors.ErrLoanAlreadySettled) {
			l.logger.Error("installment applied to settled loan",
				zap.String("loan_id", loanID.String()),
				zap.String("status", current.Status),
			)
		}
		return EmployeeLoan{}, err
	}

	saved, err := l.repo.SaveInstallment(ctx, &next, current.PaidInstallments)
	if err != nil {
		return EmployeeLoan{}, fmt.Errorf("save installment for loan %s: %w", loanID, err)
	}
	if !saved {
		l.logger.Error("loan changed while applying installment",
			zap.String("loan_id", loanID.String()),
			zap.Int("expected_paid_installments", current.PaidInstallments),
		)
		return EmployeeLoan{}, loanerrors.ErrLoanAlreadySettled
	}

	l.logger.Debug("loan installment applied",
		zap.String("loan_id", loanID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("remaining", next.RemainingAmount.StringFixed(2)),
		zap.String("status", next.Status),
	)

	return next, nil
}

// Amortize applies one installment to an active loan and returns the new
// state. The balance never drops below zero; the loan completes once the
// installment count is reached or the balance is exhausted.
func Amortize(l EmployeeLoan, amount decimal.Decimal, at time.Time) (EmployeeLoan, error) {
	if !l.IsActive() {
		return EmployeeLoan{}, loanerrors.ErrLoanAlreadySettled
	}
	if amount.IsNegative() {
		return EmployeeLoan{}, loanerrors.ErrInvalidInstallmentAmount
	}

	next := l
	next.PaidInstallments = l.PaidInstallments + 1
	next.RemainingAmount = decimal.Max(decimal.Zero, l.RemainingAmount.Sub(amount))

	if next.PaidInstallments >= l.NumberOfInstallments || next.RemainingAmount.IsZero() {
		next.Status = StatusCompleted
		next.CompletedAt = &at
	}

	return next, nil
}
