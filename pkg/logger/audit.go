package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security-relevant device or stream event
type AuditEvent struct {
	EventType     string
	AccountID     string
	DeviceID      string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogDeviceEvent logs device admission, rejection, and removal events
func (al *AuditLogger) LogDeviceEvent(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "device"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.AccountID != "" {
		attrs = append(attrs, slog.String("account_id", event.AccountID))
	}
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", TruncateUserAgent(event.UserAgent)))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogStreamEvent logs reservation, takeover, heartbeat, and release events
func (al *AuditLogger) LogStreamEvent(eventType, accountID, deviceID string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "stream"),
		slog.String("event_type", eventType),
		slog.String("account_id", accountID),
		slog.String("device_id", deviceID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	for k, v := range metadata {
		attrs = append(attrs, slog.String(k, v))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
