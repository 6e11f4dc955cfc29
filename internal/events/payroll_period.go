package events

import "time"

const (
	PayrollPeriodProcessedTopic = "backoffice.payroll.period.processed.v1"
	PayrollPeriodApprovedTopic  = "backoffice.payroll.period.approved.v1"
	PayrollPeriodPaidTopic      = "backoffice.payroll.period.paid.v1"
)

const (
	PayrollPeriodProcessed = "payroll.period.processed"
	PayrollPeriodApproved  = "payroll.period.approved"
	PayrollPeriodPaid      = "payroll.period.paid"
)

// PayrollPeriodEvent is emitted through the outbox on every lifecycle
// transition that downstream systems care about. Money is a 2-dp string.
type PayrollPeriodEvent struct {
	EventType       string    `json:"event_type"`
	PeriodID        string    `json:"period_id"`
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	Status          string    `json:"status"`
	ActorID         string    `json:"actor_id,omitempty"`
	TotalEmployees  int       `json:"total_employees"`
	TotalGross      string    `json:"total_gross_salary"`
	TotalDeductions string    `json:"total_deductions"`
	TotalNet        string    `json:"total_net_salary"`
	PaymentDate     string    `json:"payment_date,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// TopicFor maps an event type to its topic.
func TopicFor(eventType string) (string, bool) {
	switch eventType {
	case PayrollPeriodProcessed:
		return PayrollPeriodProcessedTopic, true
	case PayrollPeriodApproved:
		return PayrollPeriodApprovedTopic, true
	case PayrollPeriodPaid:
		return PayrollPeriodPaidTopic, true
	default:
		return "", false
	}
}
