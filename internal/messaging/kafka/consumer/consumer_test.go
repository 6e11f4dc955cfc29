package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go-backoffice/internal/events"
	"go-backoffice/internal/messaging/kafka/consumer"
	"go-backoffice/internal/payroll"
	payrollerrors "go-backoffice/internal/payroll/errors"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader serves queued messages, then cancels the loop.
type fakeReader struct {
	queue     []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(f.queue) == 0 {
		f.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

type fakeGenerator struct {
	calls []string
	errs  map[string]error
}

func (f *fakeGenerator) GeneratePayslips(ctx context.Context, periodID string) (payroll.PayslipBatchResponse, error) {
	f.calls = append(f.calls, periodID)
	if err := f.errs[periodID]; err != nil {
		return payroll.PayslipBatchResponse{}, err
	}
	return payroll.PayslipBatchResponse{PeriodID: periodID, Generated: 3}, nil
}

func eventMessage(t *testing.T, offset int64, eventType, periodID string) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(events.PayrollPeriodEvent{EventType: eventType, PeriodID: periodID})
	require.NoError(t, err)
	return kafkago.Message{Offset: offset, Value: payload}
}

func TestConsumePayrollPaid(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{cancel: cancel, queue: []kafkago.Message{
		eventMessage(t, 1, events.PayrollPeriodPaid, "period-ok"),
		{Offset: 2, Value: []byte("not json")},
		eventMessage(t, 3, events.PayrollPeriodApproved, "period-approved"),
		eventMessage(t, 4, events.PayrollPeriodPaid, "period-gone"),
		eventMessage(t, 5, events.PayrollPeriodPaid, "period-db-down"),
	}}
	gen := &fakeGenerator{errs: map[string]error{
		"period-gone":    payrollerrors.ErrPeriodNotFound,
		"period-db-down": errors.New("connection refused"),
	}}

	consumer.ConsumePayrollPaid(ctx, reader, gen, zap.NewNop())

	assert.Equal(t, []string{"period-ok", "period-gone", "period-db-down"}, gen.calls)
	// the transient failure stays uncommitted for redelivery
	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := consumer.Permanent(base)

	assert.True(t, consumer.IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, consumer.IsPermanent(base))
	assert.Nil(t, consumer.Permanent(nil))
}
