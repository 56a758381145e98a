// Package audit ships security events to an append-only trail.
//
// Recording is fire-and-forget: a sink failure must never abort the
// security decision that produced the event, so Record returns nothing and
// implementations contain their own errors.
package audit

import (
	"context"
	"log/slog"
)

// Context identifies who an event belongs to.
type Context struct {
	TenantID    string
	PrincipalID string
}

// Sink receives audit events.
type Sink interface {
	Record(ctx context.Context, event string, attrs map[string]any, actx Context)
}

// LogSink writes audit events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, event string, attrs map[string]any, actx Context) {
	args := make([]any, 0, 2*len(attrs)+4)
	args = append(args, "tenant_id", actx.TenantID, "principal_id", actx.PrincipalID)
	for k, v := range attrs {
		args = append(args, k, v)
	}
	s.logger.InfoContext(ctx, event, args...)
}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, event string, attrs map[string]any, actx Context) {
	for _, s := range m {
		s.Record(ctx, event, attrs, actx)
	}
}
