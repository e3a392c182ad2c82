package logger

import (
	"context"
	"log/slog"
	"time"
)

const (
	auditTypeAuth  = "auth"
	auditTypeAdmin = "admin"
)

// AuditEvent is one audited operation. Actor is the admin client id.
type AuditEvent struct {
	EventType     string
	Actor         string
	Realm         string
	TargetID      string
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit events as structured log records
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, now: time.Now}
}

// LogAuthAttempt records a token request
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	al.emit(auditTypeAuth, event)
}

// LogAdminEvent records an action an admin client performed on a realm or user
func (al *AuditLogger) LogAdminEvent(event AuditEvent) {
	al.emit(auditTypeAdmin, event)
}

func (al *AuditLogger) emit(auditType string, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	optional := []struct{ key, value string }{
		{"actor", event.Actor},
		{"realm", event.Realm},
		{"target_id", event.TargetID},
		{"ip_address", event.IPAddress},
		{"failure_reason", event.FailureReason},
	}
	for _, o := range optional {
		if o.value != "" {
			attrs = append(attrs, slog.String(o.key, o.value))
		}
	}
	for key, value := range event.Metadata {
		attrs = append(attrs, slog.String(key, value))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
