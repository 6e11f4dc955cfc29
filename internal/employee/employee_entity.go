package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusActive     = "active"
	StatusOnLeave    = "on_leave"
	StatusSuspended  = "suspended"
	StatusTerminated = "terminated"
	StatusResigned   = "resigned"
)

// Employee is the read model of the HR master table. Only the columns the
// payroll engine needs are mapped.
type Employee struct {
	ID                 uuid.UUID           `gorm:"type:uuid;primaryKey"`
	EmployeeNumber     string              `gorm:"column:employee_number"`
	FullName           string              `gorm:"column:full_name"`
	Status             string              `gorm:"column:status;type:varchar(20)"`
	BaseSalary         decimal.NullDecimal `gorm:"column:base_salary;type:numeric(15,2)"`
	HousingAllowance   decimal.NullDecimal `gorm:"column:housing_allowance;type:numeric(15,2)"`
	TransportAllowance decimal.NullDecimal `gorm:"column:transport_allowance;type:numeric(15,2)"`
	OtherAllowances    decimal.NullDecimal `gorm:"column:other_allowances;type:numeric(15,2)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Employee) TableName() string {
	return "employees"
}

// Compensation is the monthly pay an employee is entitled to before
// attendance, bonuses and deductions.
type Compensation struct {
	BaseSalary         decimal.Decimal
	HousingAllowance   decimal.Decimal
	TransportAllowance decimal.Decimal
	OtherAllowances    decimal.Decimal
}

// Compensation maps unset columns to zero.
func (e Employee) Compensation() Compensation {
	return Compensation{
		BaseSalary:         orZero(e.BaseSalary),
		HousingAllowance:   orZero(e.HousingAllowance),
		TransportAllowance: orZero(e.TransportAllowance),
		OtherAllowances:    orZero(e.OtherAllowances),
	}
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}
