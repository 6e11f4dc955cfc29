package payroll_test

import (
	"errors"
	"testing"

	"go-backoffice/internal/payroll"
	payrollerrors "go-backoffice/internal/payroll/errors"
	"go-backoffice/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
)

func TestPeriodStatus_Transitions(t *testing.T) {
	all := []payroll.PeriodStatus{
		payroll.StatusDraft,
		payroll.StatusProcessing,
		payroll.StatusApproved,
		payroll.StatusPaid,
		payroll.StatusClosed,
	}
	allowed := map[payroll.PeriodStatus]payroll.PeriodStatus{
		payroll.StatusDraft:      payroll.StatusProcessing,
		payroll.StatusProcessing: payroll.StatusApproved,
		payroll.StatusApproved:   payroll.StatusPaid,
		payroll.StatusPaid:       payroll.StatusClosed,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from] == to
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)

			err := payroll.ValidateTransition(from, to)
			if want {
				assert.NoError(t, err)
				continue
			}
			assert.True(t, errors.Is(err, payrollerrors.ErrInvalidStateTransition), "%s -> %s", from, to)
		}
	}

}

func TestValidateTransition_Details(t *testing.T) {
	err := payroll.ValidateTransition(payroll.StatusProcessing, payroll.StatusPaid)

	httpErr := apperror.ToHTTP(err)
	assert.Equal(t, 409, httpErr.Status)
	assert.Equal(t, map[string]string{
		"current_status": "processing",
		"target_status":  "paid",
	}, httpErr.Details)
}

func TestRequiredSourceStatus(t *testing.T) {
	from, ok := payroll.RequiredSourceStatus(payroll.StatusPaid)
	assert.True(t, ok)
	assert.Equal(t, payroll.StatusApproved, from)

	_, ok = payroll.RequiredSourceStatus(payroll.StatusDraft)
	assert.False(t, ok)
}

func TestParsePeriodStatus(t *testing.T) {
	s, err := payroll.ParsePeriodStatus(" Approved ")
	assert.NoError(t, err)
	assert.Equal(t, payroll.StatusApproved, s)

	_, err = payroll.ParsePeriodStatus("cancelled")
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatusFilter)
}
