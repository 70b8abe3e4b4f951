package logger

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Audit event types for user administration
const (
	EventUserCreated        = "user_created"
	EventUserUpdated        = "user_updated"
	EventUserVerified       = "user_verified"
	EventVerificationFailed = "user_verification_failed"
)

type actorKey struct{}

// WithActor records the id of the authenticated caller on ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the id stored by WithActor, or "".
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// AuditEvent represents an administrative audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	ActorID       string
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

// Log writes event at info level, or warn when it records a failure. The
// actor falls back to the one carried by ctx.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if al == nil || al.logger == nil {
		return
	}

	if event.ActorID == "" {
		event.ActorID = ActorFromContext(ctx)
	}

	attrs := []slog.Attr{
		slog.String("audit_type", "user"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	keys := make([]string, 0, len(event.Metadata))
	for key := range event.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		attrs = append(attrs, slog.String(key, event.Metadata[key]))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}
