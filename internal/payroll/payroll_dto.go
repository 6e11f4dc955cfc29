package payroll

import "time"

type CreatePeriodRequest struct {
	Year      int    `json:"year" binding:"required,min=2000,max=2100"`
	Month     int    `json:"month" binding:"required,min=1,max=12"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

type DisbursePeriodRequest struct {
	PaymentDate string `json:"payment_date" binding:"required"`
}

type ListPeriodsRequest struct {
	Year     int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Status   string `form:"status"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

type ListRecordsRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=50" binding:"min=1,max=500"`
}

type PeriodResponse struct {
	ID               string  `json:"id"`
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Status           string  `json:"status"`
	TotalEmployees   int     `json:"total_employees"`
	TotalGrossSalary string  `json:"total_gross_salary"`
	TotalDeductions  string  `json:"total_deductions"`
	TotalNetSalary   string  `json:"total_net_salary"`
	ProcessedBy      *string `json:"processed_by,omitempty"`
	ProcessedAt      *string `json:"processed_at,omitempty"`
	ApprovedBy       *string `json:"approved_by,omitempty"`
	ApprovedAt       *string `json:"approved_at,omitempty"`
	PaymentDate      *string `json:"payment_date,omitempty"`
	ClosedBy         *string `json:"closed_by,omitempty"`
	ClosedAt         *string `json:"closed_at,omitempty"`
}

// ProcessPeriodResponse confirms a processing run. FlooredEmployees lists
// everyone whose net salary was clamped to zero and needs human review.
type ProcessPeriodResponse struct {
	PeriodID           string   `json:"period_id"`
	Status             string   `json:"status"`
	EmployeesProcessed int      `json:"employees_processed"`
	TotalGross         string   `json:"total_gross_salary"`
	TotalDeductions    string   `json:"total_deductions"`
	TotalNet           string   `json:"total_net_salary"`
	LoanInstallments   int      `json:"loan_installments"`
	FlooredEmployees   []string `json:"floored_employees,omitempty"`
}

type RecordResponse struct {
	ID                 string  `json:"id"`
	PeriodID           string  `json:"period_id"`
	EmployeeID         string  `json:"employee_id"`
	EmployeeNumber     string  `json:"employee_number,omitempty"`
	EmployeeName       string  `json:"employee_name,omitempty"`
	BaseSalary         string  `json:"base_salary"`
	HousingAllowance   string  `json:"housing_allowance"`
	TransportAllowance string  `json:"transport_allowance"`
	OtherAllowances    string  `json:"other_allowances"`
	Bonuses            string  `json:"bonuses"`
	SocialInsurance    string  `json:"social_insurance"`
	LoanDeduction      string  `json:"loan_deduction"`
	AbsenceDeduction   string  `json:"absence_deduction"`
	LateDeduction      string  `json:"late_deduction"`
	GrossSalary        string  `json:"gross_salary"`
	TotalDeductions    string  `json:"total_deductions"`
	NetSalary          string  `json:"net_salary"`
	AbsentDays         int     `json:"absent_days"`
	LateMinutes        int     `json:"late_minutes"`
	NetFloored         bool    `json:"net_floored"`
	PaymentStatus      string  `json:"payment_status"`
	PaymentDate        *string `json:"payment_date,omitempty"`
	PayslipURL         *string `json:"payslip_url,omitempty"`
}

type PeriodSummaryResponse struct {
	PeriodID         string    `json:"period_id"`
	Year             int       `json:"year"`
	Month            int       `json:"month"`
	Status           string    `json:"status"`
	TotalEmployees   int       `json:"total_employees"`
	TotalGrossSalary string    `json:"total_gross_salary"`
	TotalDeductions  string    `json:"total_deductions"`
	TotalNetSalary   string    `json:"total_net_salary"`
	FlooredRecords   int       `json:"floored_records"`
	PaidRecords      int       `json:"paid_records"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (r PeriodSummaryResponse) matches(p *PayrollPeriod) bool {
	return r.Status == p.Status.String() && r.UpdatedAt.Equal(p.UpdatedAt)
}

type ReconciliationResponse struct {
	PeriodID   string            `json:"period_id"`
	Consistent bool              `json:"consistent"`
	Stored     TotalsResponse    `json:"stored"`
	Computed   TotalsResponse    `json:"computed"`
	Mismatches []string          `json:"mismatches,omitempty"`
	Payments   PaymentsBreakdown `json:"payments"`
}

type TotalsResponse struct {
	Employees       int    `json:"employees"`
	GrossSalary     string `json:"gross_salary"`
	TotalDeductions string `json:"total_deductions"`
	NetSalary       string `json:"net_salary"`
}

type PaymentsBreakdown struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
}

type PayslipBatchResponse struct {
	PeriodID  string `json:"period_id"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
}
