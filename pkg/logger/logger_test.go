package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "a****@*******.com"},
		{"a@x.io", "a@*.io"},
		{"not-an-email", "[invalid-email]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizedEmail(tt.email))
	}
}

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"empty", "", false},
		{"paging only", "page=2&limit=10", false},
		{"filter on name", "filterId=name&filterValue=ali", false},
		{"filter on email", "filterId=name&filterId=email&filterValue=a&filterValue=b", true},
		{"filter on wallet", "filterId=walletAddress&filterValue=0xab", true},
		{"code param", "code=123456", true},
		{"malformed", "a=%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQueryString(tt.query))
		})
	}
}

func TestAuditLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithActor(context.Background(), "admin-1")
	audit.Log(ctx, AuditEvent{
		EventType: EventUserUpdated,
		UserID:    "user-1",
		Success:   true,
		Metadata:  map[string]string{"fields": "name,role"},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "user_updated", entry["event_type"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "admin-1", entry["actor_id"])
	assert.Equal(t, "name,role", entry["fields"])
}

func TestAuditLogger_FailureIsWarn(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	audit.Log(context.Background(), AuditEvent{EventType: EventVerificationFailed, FailureReason: "code mismatch"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "code mismatch", entry["failure_reason"])
	assert.NotContains(t, entry, "actor_id")
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var audit *AuditLogger
	assert.NotPanics(t, func() {
		audit.Log(context.Background(), AuditEvent{EventType: EventUserCreated})
	})
}
