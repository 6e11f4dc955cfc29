package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// PayrollPeriod is one pay cycle and the aggregate of its records.
type PayrollPeriod struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Year             int             `gorm:"not null;uniqueIndex:uq_payroll_period_year_month"`
	Month            int             `gorm:"not null;uniqueIndex:uq_payroll_period_year_month"`
	StartDate        time.Time       `gorm:"type:date;not null"`
	EndDate          time.Time       `gorm:"type:date;not null"`
	Status           PeriodStatus    `gorm:"type:varchar(20);not null;index"`
	TotalEmployees   int             `gorm:"not null;default:0"`
	TotalGrossSalary decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	TotalDeductions  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	TotalNetSalary   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`

	ProcessedBy *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt *time.Time
	ApprovedBy  *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt  *time.Time
	PaymentDate *time.Time `gorm:"type:date"`
	ClosedBy    *uuid.UUID `gorm:"type:uuid"`
	ClosedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PayrollPeriod) TableName() string {
	return "payroll_periods"
}

// Totals returns the stored aggregate of the period.
func (p PayrollPeriod) Totals() Totals {
	return Totals{
		Employees:       p.TotalEmployees,
		GrossSalary:     p.TotalGrossSalary,
		TotalDeductions: p.TotalDeductions,
		NetSalary:       p.TotalNetSalary,
	}
}

// PayrollRecord is one employee's result for one period. It is created
// together with its period's processing run and never recomputed.
type PayrollRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	PayrollPeriodID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payroll_record_period_employee"`
	EmployeeID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payroll_record_period_employee"`
	EmployeeNumber  string    `gorm:"type:varchar(50)"`
	EmployeeName    string    `gorm:"type:varchar(150)"`

	BaseSalary         decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	HousingAllowance   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	TransportAllowance decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	OtherAllowances    decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Bonuses            decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	SocialInsurance    decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	LoanDeduction      decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	AbsenceDeduction   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	LateDeduction      decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	GrossSalary        decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	TotalDeductions    decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	NetSalary          decimal.Decimal `gorm:"type:numeric(15,2);not null"`

	AbsentDays  int  `gorm:"not null;default:0"`
	LateMinutes int  `gorm:"not null;default:0"`
	NetFloored  bool `gorm:"not null;default:false"`

	PaymentStatus string     `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentDate   *time.Time `gorm:"type:date"`

	PayslipURL         *string
	PayslipGeneratedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PayrollRecord) TableName() string {
	return "payroll_records"
}

// Totals is the aggregate carried by a period. It is only ever built by
// summing records, so the period and its records cannot disagree.
type Totals struct {
	Employees       int
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
}

func (t *Totals) Add(b Breakdown) {
	t.Employees++
	t.GrossSalary = t.GrossSalary.Add(b.GrossSalary)
	t.TotalDeductions = t.TotalDeductions.Add(b.TotalDeductions)
	t.NetSalary = t.NetSalary.Add(b.NetSalary)
}

func (t Totals) Equal(o Totals) bool {
	return t.Employees == o.Employees &&
		t.GrossSalary.Equal(o.GrossSalary) &&
		t.TotalDeductions.Equal(o.TotalDeductions) &&
		t.NetSalary.Equal(o.NetSalary)
}

// RecordAggregate is what the database reports for a period's records.
type RecordAggregate struct {
	Totals
	FlooredRecords int
	PaidRecords    int
}
