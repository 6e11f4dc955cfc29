package payroll_test

import (
	"testing"
	"time"

	"go-backoffice/internal/attendance"
	"go-backoffice/internal/bonus"
	"go-backoffice/internal/employee"
	"go-backoffice/internal/loan"
	"go-backoffice/internal/payroll"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func day(v string) time.Time {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		panic(err)
	}
	return t
}

func newCalculator(t *testing.T, policy payroll.MissingAttendancePolicy) payroll.Calculator {
	t.Helper()
	rates := payroll.DefaultRates()
	rates.MissingAttendance = policy
	calc, err := payroll.NewCalculator(rates)
	require.NoError(t, err)
	return calc
}

func baseInput(periodID uuid.UUID) payroll.CalculationInput {
	return payroll.CalculationInput{
		PeriodID:  periodID,
		StartDate: day("2025-04-01"),
		EndDate:   day("2025-04-30"),
		Compensation: employee.Compensation{
			BaseSalary: dec("10000"),
		},
	}
}

func absentOn(date string) attendance.Record {
	return attendance.Record{ID: uuid.New(), AttendanceDate: day(date), Status: attendance.StatusAbsent}
}

func assertInvariants(t *testing.T, b payroll.Breakdown) {
	t.Helper()
	gross := b.BaseSalary.Add(b.HousingAllowance).Add(b.TransportAllowance).Add(b.OtherAllowances).Add(b.Bonuses)
	deductions := b.SocialInsurance.Add(b.LoanDeduction).Add(b.AbsenceDeduction).Add(b.LateDeduction)
	assert.True(t, gross.Equal(b.GrossSalary), "gross %s != %s", b.GrossSalary, gross)
	assert.True(t, deductions.Equal(b.TotalDeductions), "deductions %s != %s", b.TotalDeductions, deductions)
	assert.True(t, decimal.Max(decimal.Zero, gross.Sub(deductions)).Equal(b.NetSalary), "net %s", b.NetSalary)
}

func TestCalculator_SingleLoanPaidOff(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	in := baseInput(uuid.New())
	loanID := uuid.New()
	in.Loans = []loan.EmployeeLoan{{
		ID:                   loanID,
		Amount:               dec("6000"),
		MonthlyDeduction:     dec("500"),
		RemainingAmount:      dec("500"),
		NumberOfInstallments: 12,
		PaidInstallments:     11,
		Status:               loan.StatusActive,
	}}

	got := calc.Calculate(in)
	b := got.Breakdown

	assert.Equal(t, "975.00", b.SocialInsurance.StringFixed(2))
	assert.Equal(t, "500.00", b.LoanDeduction.StringFixed(2))
	assert.Equal(t, "8525.00", b.NetSalary.StringFixed(2))
	assert.False(t, b.NetFloored)
	require.Len(t, got.LoanDebits, 1)
	assert.Equal(t, loanID, got.LoanDebits[0].LoanID)
	assert.Equal(t, "500.00", got.LoanDebits[0].Amount.StringFixed(2))
	assertInvariants(t, b)
}

func TestCalculator_AbsentDaysRounded(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	in := baseInput(uuid.New())
	in.Attendance = []attendance.Record{
		absentOn("2025-04-02"),
		absentOn("2025-04-03"),
		// same day twice counts once
		absentOn("2025-04-03"),
		// outside the period
		absentOn("2025-05-02"),
	}

	b := calc.Calculate(in).Breakdown

	assert.Equal(t, 2, b.AbsentDays)
	assert.Equal(t, "666.67", b.AbsenceDeduction.StringFixed(2))
	assert.Equal(t, "8358.33", b.NetSalary.StringFixed(2))
	assertInvariants(t, b)
}

func TestCalculator_PendingBonusExcluded(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	periodID := uuid.New()
	otherPeriod := uuid.New()
	in := baseInput(periodID)
	in.Bonuses = []bonus.EmployeeBonus{
		{ID: uuid.New(), Amount: dec("750"), Status: bonus.StatusPending, PayrollPeriodID: &periodID},
		{ID: uuid.New(), Amount: dec("250"), Status: bonus.StatusApproved, PayrollPeriodID: &periodID},
		{ID: uuid.New(), Amount: dec("900"), Status: bonus.StatusApproved, PayrollPeriodID: &otherPeriod},
		{ID: uuid.New(), Amount: dec("100"), Status: bonus.StatusApproved},
	}

	b := calc.Calculate(in).Breakdown

	assert.Equal(t, "250.00", b.Bonuses.StringFixed(2))
	assert.Equal(t, "10250.00", b.GrossSalary.StringFixed(2))
	assertInvariants(t, b)
}

func TestCalculator_LateMinutes(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	in := baseInput(uuid.New())
	in.Attendance = []attendance.Record{
		{ID: uuid.New(), AttendanceDate: day("2025-04-07"), Status: attendance.StatusLate, LateMinutes: 30},
		{ID: uuid.New(), AttendanceDate: day("2025-04-08"), Status: attendance.StatusLate, LateMinutes: 15},
	}

	b := calc.Calculate(in).Breakdown

	assert.Equal(t, 45, b.LateMinutes)
	assert.Equal(t, 0, b.AbsentDays)
	assert.Equal(t, "31.25", b.LateDeduction.StringFixed(2))
	assertInvariants(t, b)
}

func TestCalculator_AllowancesAndNullColumns(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	in := baseInput(uuid.New())
	in.Compensation = employee.Employee{
		BaseSalary:       decimal.NewNullDecimal(dec("8000")),
		HousingAllowance: decimal.NewNullDecimal(dec("1500")),
	}.Compensation()

	b := calc.Calculate(in).Breakdown

	assert.Equal(t, "0.00", b.TransportAllowance.StringFixed(2))
	assert.Equal(t, "9500.00", b.GrossSalary.StringFixed(2))
	assert.Equal(t, "780.00", b.SocialInsurance.StringFixed(2))
	assert.Equal(t, "8720.00", b.NetSalary.StringFixed(2))
	assertInvariants(t, b)
}

func TestCalculator_NetFlooredAtZero(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	in := baseInput(uuid.New())
	in.Compensation.BaseSalary = dec("1000")
	in.Loans = []loan.EmployeeLoan{{
		ID:                   uuid.New(),
		MonthlyDeduction:     dec("2000"),
		RemainingAmount:      dec("5000"),
		NumberOfInstallments: 5,
		Status:               loan.StatusActive,
	}}

	got := calc.Calculate(in)
	b := got.Breakdown

	assert.True(t, b.NetFloored)
	assert.True(t, b.NetSalary.IsZero())
	assert.Equal(t, "2097.50", b.TotalDeductions.StringFixed(2))
	require.Len(t, got.LoanDebits, 1)
	assertInvariants(t, b)
}

func TestCalculator_InactiveLoansSkipped(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	in := baseInput(uuid.New())
	in.Loans = []loan.EmployeeLoan{
		{ID: uuid.New(), MonthlyDeduction: dec("300"), RemainingAmount: dec("300"), Status: loan.StatusCompleted},
		{ID: uuid.New(), MonthlyDeduction: dec("300"), RemainingAmount: dec("900"), Status: loan.StatusPending},
		{ID: uuid.New(), MonthlyDeduction: dec("300"), RemainingAmount: dec("120"), NumberOfInstallments: 4, PaidInstallments: 3, Status: loan.StatusActive},
	}

	got := calc.Calculate(in)

	require.Len(t, got.LoanDebits, 1)
	assert.Equal(t, "120.00", got.LoanDebits[0].Amount.StringFixed(2))
	assert.Equal(t, "120.00", got.Breakdown.LoanDeduction.StringFixed(2))
}

func TestCalculator_ExhaustedActiveLoanGetsZeroDebit(t *testing.T) {
	calc := newCalculator(t, payroll.MissingAsPresent)
	in := baseInput(uuid.New())
	loanID := uuid.New()
	in.Loans = []loan.EmployeeLoan{
		{ID: loanID, MonthlyDeduction: dec("500"), RemainingAmount: decimal.Zero, NumberOfInstallments: 10, PaidInstallments: 9, Status: loan.StatusActive},
	}

	got := calc.Calculate(in)

	require.Len(t, got.LoanDebits, 1)
	assert.Equal(t, loanID, got.LoanDebits[0].LoanID)
	assert.True(t, got.LoanDebits[0].Amount.IsZero())
	assert.True(t, got.Breakdown.LoanDeduction.IsZero())
	assertInvariants(t, got.Breakdown)
}

func TestCalculator_MissingAttendancePolicy(t *testing.T) {
	periodID := uuid.New()
	in := payroll.CalculationInput{
		PeriodID:     periodID,
		StartDate:    day("2025-04-07"),
		EndDate:      day("2025-04-13"),
		Compensation: employee.Compensation{BaseSalary: dec("3000")},
		Attendance: []attendance.Record{
			{ID: uuid.New(), AttendanceDate: day("2025-04-07"), Status: attendance.StatusPresent},
			{ID: uuid.New(), AttendanceDate: day("2025-04-08"), Status: attendance.StatusPresent},
			absentOn("2025-04-09"),
			{ID: uuid.New(), AttendanceDate: day("2025-04-10"), Status: attendance.StatusLeave},
		},
	}

	t.Run("present", func(t *testing.T) {
		b := newCalculator(t, payroll.MissingAsPresent).Calculate(in).Breakdown
		assert.Equal(t, 1, b.AbsentDays)
		assert.Equal(t, "100.00", b.AbsenceDeduction.StringFixed(2))
	})

	t.Run("absent counts missing weekdays only", func(t *testing.T) {
		b := newCalculator(t, payroll.MissingAsAbsent).Calculate(in).Breakdown
		// friday has no record, the weekend is ignored
		assert.Equal(t, 2, b.AbsentDays)
		assert.Equal(t, "200.00", b.AbsenceDeduction.StringFixed(2))
	})
}

func TestRates_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *payroll.Rates)
	}{
		{"negative insurance", func(r *payroll.Rates) { r.InsuranceRate = dec("-0.1") }},
		{"insurance of one", func(r *payroll.Rates) { r.InsuranceRate = dec("1") }},
		{"zero days", func(r *payroll.Rates) { r.DaysPerMonth = 0 }},
		{"zero hours", func(r *payroll.Rates) { r.HoursPerDay = 0 }},
		{"unknown policy", func(r *payroll.Rates) { r.MissingAttendance = "ignore" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rates := payroll.DefaultRates()
			tc.mutate(&rates)
			_, err := payroll.NewCalculator(rates)
			assert.Error(t, err)
		})
	}

	_, err := payroll.NewCalculator(payroll.DefaultRates())
	assert.NoError(t, err)
}
