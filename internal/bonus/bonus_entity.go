package bonus

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type EmployeeBonus struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayrollPeriodID *uuid.UUID      `gorm:"type:uuid;index"`
	Amount          decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Status          string          `gorm:"type:varchar(20);not null"`
	Reason          string          `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (EmployeeBonus) TableName() string {
	return "employee_bonuses"
}

// PayableIn reports whether the bonus is approved and tagged for periodID.
func (b EmployeeBonus) PayableIn(periodID uuid.UUID) bool {
	return b.Status == StatusApproved && b.PayrollPeriodID != nil && *b.PayrollPeriodID == periodID
}
