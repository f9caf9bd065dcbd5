package portal

import (
	"context"
	"errors"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignup            ActivityEventType = "portal.signup"
	ActivityEventLoginSuccess      ActivityEventType = "portal.login.success"
	ActivityEventLoginFailure      ActivityEventType = "portal.login.failure"
	ActivityEventLogout            ActivityEventType = "portal.logout"
	ActivityEventRoleChanged       ActivityEventType = "portal.role.changed"
	ActivityEventAccessDenied      ActivityEventType = "portal.access.denied"
	ActivityEventInjectionDetected ActivityEventType = "portal.injection.detected"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      string
	Subject    string
	FromRole   UserRole
	ToRole     UserRole
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// MultiActivitySink fans an event out to every sink. All sinks are
// called even when one fails; the errors are joined.
type MultiActivitySink []ActivitySink

// Record implements ActivitySink.
func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoggerActivitySink writes events to a Logger
type LoggerActivitySink struct {
	Logger Logger
}

// NewLoggerActivitySink returns a sink logging through logger
func NewLoggerActivitySink(logger Logger) *LoggerActivitySink {
	return &LoggerActivitySink{Logger: normalizeLogger(logger)}
}

// Record implements ActivitySink.
func (s *LoggerActivitySink) Record(_ context.Context, event ActivityEvent) error {
	args := []any{
		"event", event.EventType,
		"actor", event.Actor,
		"subject", event.Subject,
		"occurred_at", event.OccurredAt,
	}

	if event.FromRole != "" || event.ToRole != "" {
		args = append(args, "from_role", event.FromRole, "to_role", event.ToRole)
	}

	for k, v := range event.Metadata {
		args = append(args, k, v)
	}

	switch event.EventType {
	case ActivityEventLoginFailure, ActivityEventAccessDenied, ActivityEventInjectionDetected:
		normalizeLogger(s.Logger).Warn("activity", args...)
	default:
		normalizeLogger(s.Logger).Info("activity", args...)
	}
	return nil
}
