package producer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-backoffice/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutboxRepo struct {
	pending []kafka.OutboxEvent
	sent    []string
	failed  map[string]string
}

func (f *fakeOutboxRepo) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutboxRepo) Create(ctx context.Context, event kafka.OutboxEvent) error {
	return nil
}
func (f *fakeOutboxRepo) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return f.pending, nil
}
func (f *fakeOutboxRepo) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}
func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return nil
}

type fakeWriter struct {
	messages []kafkago.Message
	failOn   string
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if m.Topic == f.failOn {
			return errors.New("leader not available")
		}
		f.messages = append(f.messages, m)
	}
	return nil
}

func TestProcessPendingEvents(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{
		{ID: "a", RequestID: "req-1", AggregateID: "period-1", EventType: "payroll.period.processed", Topic: "processed", Payload: []byte(`{}`)},
		{ID: "b", AggregateID: "period-1", EventType: "payroll.period.paid", Topic: "paid", Payload: []byte(`{}`)},
	}}
	writer := &fakeWriter{failOn: "paid"}

	sent, err := processPendingEvents(context.Background(), repo, writer, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"a"}, repo.sent)
	assert.Equal(t, "leader not available", repo.failed["b"])

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, []byte("period-1"), msg.Key)
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "payroll.period.processed", headers["event_type"])
	assert.Equal(t, "req-1", headers["request_id"])
}

func TestToMessage_OmitsEmptyRequestID(t *testing.T) {
	msg := toMessage(kafka.OutboxEvent{ID: "x", Topic: "t", AggregateID: "p"})
	for _, h := range msg.Headers {
		assert.NotEqual(t, "request_id", h.Key)
	}
}
