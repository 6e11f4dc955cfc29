package events_test

import (
	"testing"

	"go-backoffice/internal/events"

	"github.com/stretchr/testify/assert"
)

func TestTopicFor(t *testing.T) {
	topic, ok := events.TopicFor(events.PayrollPeriodPaid)
	assert.True(t, ok)
	assert.Equal(t, events.PayrollPeriodPaidTopic, topic)

	topic, ok = events.TopicFor(events.PayrollPeriodProcessed)
	assert.True(t, ok)
	assert.Equal(t, events.PayrollPeriodProcessedTopic, topic)

	_, ok = events.TopicFor("payroll.period.deleted")
	assert.False(t, ok)
}
