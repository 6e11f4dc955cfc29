package loan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// EmployeeLoan is a salary advance repaid through fixed monthly payroll
// deductions.
type EmployeeLoan struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount               decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	MonthlyDeduction     decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	NumberOfInstallments int             `gorm:"not null"`
	PaidInstallments     int             `gorm:"not null;default:0"`
	RemainingAmount      decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Status               string          `gorm:"type:varchar(20);not null;index"`
	CompletedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (EmployeeLoan) TableName() string {
	return "employee_loans"
}

func (l EmployeeLoan) IsActive() bool {
	return l.Status == StatusActive
}

// NextInstallment is the amount the next payroll run should deduct: the
// fixed installment, or the remaining balance when that is smaller.
func (l EmployeeLoan) NextInstallment() decimal.Decimal {
	if l.RemainingAmount.LessThan(l.MonthlyDeduction) {
		return l.RemainingAmount
	}
	return l.MonthlyDeduction
}
