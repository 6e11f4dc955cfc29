package payrollerrors

import (
	"net/http"

	"go-backoffice/internal/shared/apperror"
)

var (
	ErrInvalidPeriodID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll period id",
		http.StatusBadRequest,
	)
	ErrInvalidRecordID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll record id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidPeriodMonth = apperror.New(
		apperror.CodeInvalidInput,
		"month must be between 1 and 12",
		http.StatusBadRequest,
	)
	ErrInvalidPeriodYear = apperror.New(
		apperror.CodeInvalidInput,
		"year is out of range",
		http.StatusBadRequest,
	)
	ErrInvalidPeriodRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before end_date",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll period status filter",
		http.StatusBadRequest,
	)
	ErrPeriodAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"payroll period already exists for this year and month",
		http.StatusConflict,
	)
	ErrPeriodNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll period not found",
		http.StatusNotFound,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll record not found",
		http.StatusNotFound,
	)
	ErrInvalidStateTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid payroll period status transition",
		http.StatusConflict,
	)
	// ErrPartialFailure aborts a whole processing or disbursement run. The
	// cause and the failing employee or record travel with it.
	ErrPartialFailure = apperror.New(
		apperror.CodePartialFailure,
		"payroll run aborted, no changes were committed",
		http.StatusInternalServerError,
	)
	ErrPayslipNotGenerated = apperror.New(
		apperror.CodeNotFound,
		"payslip is not generated yet",
		http.StatusNotFound,
	)
	ErrPayslipRequiresPaidPeriod = apperror.New(
		apperror.CodeInvalidState,
		"payslips can only be generated for paid periods",
		http.StatusConflict,
	)
)
