package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// StreamSink appends audit events to a capped Redis Stream for later
// review. Write failures are logged at debug level and dropped.
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

func NewStreamSink(client *redis.Client, stream string, maxLen int64, logger *slog.Logger) *StreamSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
	}
}

func (s *StreamSink) Record(ctx context.Context, event string, attrs map[string]any, actx Context) {
	values := map[string]any{
		"event":        event,
		"tenant_id":    actx.TenantID,
		"principal_id": actx.PrincipalID,
	}
	for k, v := range attrs {
		values["attr_"+k] = fmt.Sprint(v)
	}

	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		s.logger.DebugContext(ctx, "audit stream write failed", "event", event, "error", err)
	}
}
