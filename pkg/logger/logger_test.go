package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john@example.com", "j***@*******.com"},
		{"a@localhost", "a@localhost"},
		{"john-doh@mail.acme.org", "j*******@****.****.org"},
		{"not-an-email", "[invalid-email]"},
		{"@example.com", "[invalid-email]"},
		{"a@b@c", "[invalid-email]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizedEmail(tt.in), tt.in)
	}
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("ip", "10.0.0.1", "production").Value.String())
	assert.Equal(t, "10.0.0.1", RedactedAttr("ip", "10.0.0.1", "development").Value.String())
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"paging only", "max=10&first=0", "first=0&max=10"},
		{"ids kept", "groupId=g-1&roleId=r-1", "groupId=g-1&roleId=r-1"},
		{"search", "search=john&max=5", "max=5&search=[REDACTED]"},
		{"mixed case names", "lastName=doh%25&firstName=J", "firstName=[REDACTED]&lastName=[REDACTED]"},
		{"custom parameters", "custom1=a&lifespan=60", "custom1=[REDACTED]&lifespan=60"},
		{"redirect", "redirect_uri=http%3A%2F%2Fx&client_id=app", "client_id=app&redirect_uri=[REDACTED]"},
		{"broken", "a=%zz", "[REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactQuery(tt.in))
		})
	}
}

func newTestAuditLogger(buf *bytes.Buffer) *AuditLogger {
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(buf, nil)))
	al.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return al
}

func TestAuditLogger_LogAdminEvent(t *testing.T) {
	var buf bytes.Buffer
	al := newTestAuditLogger(&buf)

	al.LogAdminEvent(AuditEvent{
		EventType: "execute_actions_email",
		Actor:     "admin-cli",
		Realm:     "test",
		TargetID:  "u-1",
		IPAddress: "10.0.0.1",
		Success:   true,
		Metadata:  map[string]string{"actions": "UPDATE_PASSWORD"},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "audit", entry["msg"])
	assert.Equal(t, "admin", entry["audit_type"])
	assert.Equal(t, "execute_actions_email", entry["event_type"])
	assert.Equal(t, "admin-cli", entry["actor"])
	assert.Equal(t, "test", entry["realm"])
	assert.Equal(t, "u-1", entry["target_id"])
	assert.Equal(t, "UPDATE_PASSWORD", entry["actions"])
	assert.Equal(t, "2026-01-01T00:00:00Z", entry["timestamp"])
	assert.NotContains(t, entry, "failure_reason")
}

func TestAuditLogger_FailedEventsWarn(t *testing.T) {
	var buf bytes.Buffer
	al := newTestAuditLogger(&buf)

	al.LogAuthAttempt(AuditEvent{EventType: "token_failed", FailureReason: "invalid_client"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "auth", entry["audit_type"])
	assert.Equal(t, "invalid_client", entry["failure_reason"])
	assert.NotContains(t, entry, "actor")
}
