package service

import (
	"context"
	"log/slog"

	"basegraph.app/eventstore/common/logger"
	"basegraph.app/eventstore/internal/queue"
)

// EventPublisher is the write path's hook: it hands a committed operation to
// the recorder worker and never fails the caller.
type EventPublisher interface {
	Publish(ctx context.Context, params RecordParams) bool
}

type eventPublisher struct {
	queue  queue.Producer
	logger *slog.Logger
}

func NewEventPublisher(queue queue.Producer, logger *slog.Logger) EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventPublisher{
		queue:  queue,
		logger: logger,
	}
}

// Publish reports whether the message was enqueued. Failures are logged only.
func (p *eventPublisher) Publish(ctx context.Context, params RecordParams) bool {
	traceID := params.TraceID
	if traceID == "" {
		traceID = logger.TraceIDFromContext(ctx)
	}

	if err := p.queue.Enqueue(ctx, queue.RecordMessage{
		OccurredAt:    params.OccurredAt,
		Payload:       params.Payload,
		ResultData:    params.ResultData,
		EventID:       params.EventID,
		OperationType: params.OperationType,
		SubjectCode:   params.SubjectCode,
		TraceID:       traceID,
		SubjectID:     params.SubjectID,
		Attempt:       1,
	}); err != nil {
		p.logger.ErrorContext(ctx, "failed to enqueue record message",
			"error", err,
			"event_id", params.EventID,
			"operation_type", params.OperationType,
			"subject_code", params.SubjectCode)
		return false
	}
	return true
}
