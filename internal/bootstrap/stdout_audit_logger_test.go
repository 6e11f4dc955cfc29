package bootstrap

import (
	"context"
	"testing"
	"time"

	"go-backoffice/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutAuditLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := NewStdoutAuditLogger(zap.New(core))
	audit.now = func() time.Time { return time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC) }

	ctx := contextutil.WithRequestID(context.Background(), "req-42")
	audit.Log(ctx, AuditLog{Action: "SERVER_SHUTDOWN", Message: "bye", Meta: map[string]any{"signal": "terminated"}})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "SERVER_SHUTDOWN", fields["action"])
	assert.Equal(t, "2025-05-01T08:00:00Z", fields["timestamp"])
	assert.Equal(t, "req-42", fields["request_id"])
}
