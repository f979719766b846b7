package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/eventstore/common/logger"
	"basegraph.app/eventstore/internal/queue"
	"basegraph.app/eventstore/internal/service"
)

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer Consumer
	recorder Recorder
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, recorder Recorder, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer:  consumer,
		recorder:  recorder,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "eventstore.worker",
	})

	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"event_id", msg.Record.EventID)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"event_id", msg.Record.EventID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage records one message and acks it. Exported for the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	record := msg.Record

	span := logger.StartSpanFromTraceID(ctx, record.TraceID, "worker.record_event")
	defer span.End()

	ctx = logger.WithLogFields(span.Context(), logger.LogFields{
		EventID:       &record.EventID,
		FeatureCode:   &record.SubjectCode,
		OperationType: logger.Ptr(string(record.OperationType)),
		MessageID:     &msg.ID,
	})

	slog.DebugContext(ctx, "processing message", "attempt", msg.Attempt)

	result, err := w.recorder.Record(ctx, service.RecordParams{
		OccurredAt:    record.OccurredAt,
		Payload:       record.Payload,
		ResultData:    record.ResultData,
		EventID:       record.EventID,
		OperationType: record.OperationType,
		SubjectCode:   record.SubjectCode,
		TraceID:       record.TraceID,
		SubjectID:     record.SubjectID,
	})
	if err != nil {
		span.RecordError(err)
		// Not acked; the caller decides between requeue and DLQ.
		return fmt.Errorf("recording event: %w", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// The reclaimer will redeliver; the recorder dedups the EVENT row.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	slog.InfoContext(ctx, "record message processed", "deduplicated", result.Deduplicated)
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if errors.Is(err, service.ErrValidation) || msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "message cannot be recorded, sending to DLQ",
			"message_id", msg.ID,
			"event_id", msg.Record.EventID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"event_id", msg.Record.EventID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
