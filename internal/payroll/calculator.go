package payroll

import (
	"fmt"
	"time"

	"go-backoffice/internal/attendance"
	"go-backoffice/internal/bonus"
	"go-backoffice/internal/employee"
	"go-backoffice/internal/loan"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MissingAttendancePolicy decides how a day without any attendance record
// is treated.
type MissingAttendancePolicy string

const (
	MissingAsPresent MissingAttendancePolicy = "present"
	// MissingAsAbsent counts weekdays without a record as absent days.
	MissingAsAbsent MissingAttendancePolicy = "absent"
)

const moneyPlaces = 2

var minutesPerHour = decimal.NewFromInt(60)

// Rates are the jurisdiction constants of a payroll run.
type Rates struct {
	InsuranceRate     decimal.Decimal
	DaysPerMonth      int64
	HoursPerDay       int64
	MissingAttendance MissingAttendancePolicy
}

func DefaultRates() Rates {
	return Rates{
		InsuranceRate:     decimal.RequireFromString("0.0975"),
		DaysPerMonth:      30,
		HoursPerDay:       8,
		MissingAttendance: MissingAsPresent,
	}
}

func (r Rates) Validate() error {
	if r.InsuranceRate.IsNegative() || r.InsuranceRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("insurance rate must be in [0, 1), got %s", r.InsuranceRate)
	}
	if r.DaysPerMonth <= 0 {
		return fmt.Errorf("days per month must be positive, got %d", r.DaysPerMonth)
	}
	if r.HoursPerDay <= 0 {
		return fmt.Errorf("hours per day must be positive, got %d", r.HoursPerDay)
	}
	switch r.MissingAttendance {
	case MissingAsPresent, MissingAsAbsent:
		return nil
	default:
		return fmt.Errorf("unknown missing attendance policy %q", r.MissingAttendance)
	}
}

// CalculationInput is everything known about one employee for one period.
// Rows outside the period, unapproved bonuses and inactive loans are ignored.
type CalculationInput struct {
	PeriodID     uuid.UUID
	StartDate    time.Time
	EndDate      time.Time
	Compensation employee.Compensation
	Attendance   []attendance.Record
	Bonuses      []bonus.EmployeeBonus
	Loans        []loan.EmployeeLoan
}

// Breakdown holds every monetary component rounded to cents. Gross, total
// deductions and net are sums of the rounded components.
type Breakdown struct {
	BaseSalary         decimal.Decimal
	HousingAllowance   decimal.Decimal
	TransportAllowance decimal.Decimal
	OtherAllowances    decimal.Decimal
	Bonuses            decimal.Decimal
	SocialInsurance    decimal.Decimal
	LoanDeduction      decimal.Decimal
	AbsenceDeduction   decimal.Decimal
	LateDeduction      decimal.Decimal
	GrossSalary        decimal.Decimal
	TotalDeductions    decimal.Decimal
	NetSalary          decimal.Decimal

	AbsentDays  int
	LateMinutes int
	// NetFloored is set when deductions exceeded gross and net was clamped to zero.
	NetFloored bool
}

// LoanDebit is one installment the run must apply to the loan ledger.
type LoanDebit struct {
	LoanID uuid.UUID
	Amount decimal.Decimal
}

type Calculation struct {
	Breakdown  Breakdown
	LoanDebits []LoanDebit
}

// Calculator is a pure function of its input and rates.
type Calculator struct {
	rates Rates
}

func NewCalculator(rates Rates) (Calculator, error) {
	if err := rates.Validate(); err != nil {
		return Calculator{}, err
	}
	return Calculator{rates: rates}, nil
}

func (c Calculator) Rates() Rates {
	return c.rates
}

func (c Calculator) Calculate(in CalculationInput) Calculation {
	comp := in.Compensation
	var b Breakdown

	b.BaseSalary = money(comp.BaseSalary)
	b.HousingAllowance = money(comp.HousingAllowance)
	b.TransportAllowance = money(comp.TransportAllowance)
	b.OtherAllowances = money(comp.OtherAllowances)

	totalBonuses := decimal.Zero
	for _, bn := range in.Bonuses {
		if bn.PayableIn(in.PeriodID) {
			totalBonuses = totalBonuses.Add(bn.Amount)
		}
	}
	b.Bonuses = money(totalBonuses)

	b.GrossSalary = sum(b.BaseSalary, b.HousingAllowance, b.TransportAllowance, b.OtherAllowances, b.Bonuses)

	dailyRate := comp.BaseSalary.Div(decimal.NewFromInt(c.rates.DaysPerMonth))

	b.AbsentDays, b.LateMinutes = c.tallyAttendance(in)
	b.AbsenceDeduction = money(dailyRate.Mul(decimal.NewFromInt(int64(b.AbsentDays))))

	// (minutes / 60) * (dailyRate / hoursPerDay), divided once to keep precision.
	b.LateDeduction = money(
		dailyRate.Mul(decimal.NewFromInt(int64(b.LateMinutes))).
			Div(minutesPerHour.Mul(decimal.NewFromInt(c.rates.HoursPerDay))),
	)

	b.SocialInsurance = money(comp.BaseSalary.Mul(c.rates.InsuranceRate))

	var debits []LoanDebit
	loanTotal := decimal.Zero
	for _, l := range in.Loans {
		if !l.IsActive() {
			continue
		}
		// A zero debit still counts as an installment so an exhausted loan completes.
		amount := money(decimal.Max(decimal.Zero, l.NextInstallment()))
		debits = append(debits, LoanDebit{LoanID: l.ID, Amount: amount})
		loanTotal = loanTotal.Add(amount)
	}
	b.LoanDeduction = loanTotal

	b.TotalDeductions = sum(b.SocialInsurance, b.LoanDeduction, b.AbsenceDeduction, b.LateDeduction)

	b.NetSalary = b.GrossSalary.Sub(b.TotalDeductions)
	if b.NetSalary.IsNegative() {
		b.NetSalary = decimal.Zero
		b.NetFloored = true
	}

	return Calculation{Breakdown: b, LoanDebits: debits}
}

func (c Calculator) tallyAttendance(in CalculationInput) (absentDays, lateMinutes int) {
	seen := make(map[string]struct{})
	absent := make(map[string]struct{})

	for _, r := range in.Attendance {
		if !r.Within(in.StartDate, in.EndDate) {
			continue
		}
		day := r.AttendanceDate.Format(time.DateOnly)
		seen[day] = struct{}{}
		if r.IsAbsent() {
			absent[day] = struct{}{}
		}
		if r.LateMinutes > 0 {
			lateMinutes += r.LateMinutes
		}
	}

	if c.rates.MissingAttendance == MissingAsAbsent {
		for _, day := range weekdays(in.StartDate, in.EndDate) {
			if _, ok := seen[day]; !ok {
				absent[day] = struct{}{}
			}
		}
	}

	return len(absent), lateMinutes
}

// weekdays lists Monday to Friday dates in [start, end].
func weekdays(start, end time.Time) []string {
	var days []string
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d.Format(time.DateOnly))
	}
	return days
}

func money(v decimal.Decimal) decimal.Decimal {
	return v.Round(moneyPlaces)
}

func sum(vs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}
