package loanerrors

import (
	"net/http"

	"go-backoffice/internal/shared/apperror"
)

var (
	ErrLoanNotFound = apperror.New(
		apperror.CodeNotFound,
		"loan not found",
		http.StatusNotFound,
	)
	// ErrLoanAlreadySettled means an installment was applied to a loan that
	// is not active. A payroll run should never trigger it.
	ErrLoanAlreadySettled = apperror.New(
		apperror.CodeInvalidState,
		"loan is not active",
		http.StatusConflict,
	)
	ErrInvalidInstallmentAmount = apperror.New(
		apperror.CodeInvalidInput,
		"installment amount must not be negative",
		http.StatusBadRequest,
	)
)
