package worker

import (
	"context"

	"github.com/redis/go-redis/v9"

	"basegraph.app/eventstore/internal/queue"
	"basegraph.app/eventstore/internal/service"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
	DeadLetterRaw(ctx context.Context, msg redis.XMessage, errMsg string) error
}

// Recorder persists one record message.
type Recorder interface {
	Record(ctx context.Context, params service.RecordParams) (*service.RecordResult, error)
}
