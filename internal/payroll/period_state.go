package payroll

import (
	"strings"

	payrollerrors "go-backoffice/internal/payroll/errors"
)

type PeriodStatus string

const (
	StatusDraft      PeriodStatus = "draft"
	StatusProcessing PeriodStatus = "processing"
	StatusApproved   PeriodStatus = "approved"
	StatusPaid       PeriodStatus = "paid"
	StatusClosed     PeriodStatus = "closed"
)

// periodTransitions is the whole lifecycle. Every status has at most one
// successor and there are no backward edges.
var periodTransitions = map[PeriodStatus]PeriodStatus{
	StatusDraft:      StatusProcessing,
	StatusProcessing: StatusApproved,
	StatusApproved:   StatusPaid,
	StatusPaid:       StatusClosed,
}

func ParsePeriodStatus(v string) (PeriodStatus, error) {
	s := PeriodStatus(strings.ToLower(strings.TrimSpace(v)))
	switch s {
	case StatusDraft, StatusProcessing, StatusApproved, StatusPaid, StatusClosed:
		return s, nil
	default:
		return "", payrollerrors.ErrInvalidStatusFilter
	}
}

func (s PeriodStatus) String() string {
	return string(s)
}

func (s PeriodStatus) CanTransitionTo(next PeriodStatus) bool {
	to, ok := periodTransitions[s]
	return ok && to == next
}

// RequiredSourceStatus returns the only status a period may be in before
// moving to target.
func RequiredSourceStatus(target PeriodStatus) (PeriodStatus, bool) {
	for from, to := range periodTransitions {
		if to == target {
			return from, true
		}
	}
	return "", false
}

// ValidateTransition rejects any move that is not in the transition table.
func ValidateTransition(from, to PeriodStatus) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return invalidTransition(from, to)
}

func invalidTransition(from, to PeriodStatus) error {
	return payrollerrors.ErrInvalidStateTransition.WithDetails(map[string]string{
		"current_status": from.String(),
		"target_status":  to.String(),
	})
}
