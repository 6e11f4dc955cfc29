package payroll

import (
	"errors"
	"strings"

	payrollerrors "go-backoffice/internal/payroll/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniquePeriodConstraint = "uq_payroll_period_year_month"

func mapPeriodError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return payrollerrors.ErrPeriodNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == uniquePeriodConstraint {
			return payrollerrors.ErrPeriodAlreadyExists
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, uniquePeriodConstraint) {
		return payrollerrors.ErrPeriodAlreadyExists
	}

	return err
}

func mapRecordError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return payrollerrors.ErrRecordNotFound
	}
	return err
}
