package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, msg RecordMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg RecordMessage) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: messageValues(msg, msg.Attempt),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue record: %w", err)
	}

	p.logger.DebugContext(ctx, "enqueued record message",
		"event_id", msg.EventID,
		"operation_type", msg.OperationType,
		"subject_code", msg.SubjectCode)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
