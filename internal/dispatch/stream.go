// Package dispatch holds the application-side dispatchers the replay engine
// hands decoded events to.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/eventstore/internal/model"
)

// StreamDispatcher republishes replayed events to a Redis stream so that
// downstream consumers can re-apply them. Entries carry replayed=true.
type StreamDispatcher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewStreamDispatcher(client *redis.Client, stream string, logger *slog.Logger) *StreamDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamDispatcher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (d *StreamDispatcher) Apply(ctx context.Context, event model.ReplayEvent) error {
	id, err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]any{
			"event_id":       event.EventID,
			"record_id":      event.RecordID,
			"operation_type": string(event.OperationType),
			"subject_id":     event.SubjectID,
			"subject_code":   event.SubjectCode,
			"occurred_at":    event.OccurredAt.UTC().Format(time.RFC3339Nano),
			"payload":        string(event.Payload),
			"replay_count":   event.ReplayCount,
			"replayed":       "true",
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("republishing event %s: %w", event.EventID, err)
	}

	d.logger.DebugContext(ctx, "replayed event republished", "stream", d.stream, "stream_id", id)
	return nil
}
