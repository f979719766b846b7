package worker_test

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/eventstore/internal/queue"
	"basegraph.app/eventstore/internal/service"
)

type mockConsumer struct {
	mu      sync.Mutex
	batches [][]queue.Message

	acked    []string
	requeued []string
	dead     []string
}

func (m *mockConsumer) Read(_ context.Context) ([]queue.Message, error) {
	m.mu.Lock()
	if len(m.batches) == 0 {
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	m.mu.Unlock()
	return batch, nil
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead = append(m.dead, msg.ID)
	return nil
}

func (m *mockConsumer) DeadLetterRaw(_ context.Context, msg redis.XMessage, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead = append(m.dead, msg.ID)
	return nil
}

func (m *mockConsumer) snapshot() (acked, requeued, dead []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...), append([]string(nil), m.requeued...), append([]string(nil), m.dead...)
}

type mockRecorder struct {
	mu       sync.Mutex
	recordFn func(ctx context.Context, params service.RecordParams) (*service.RecordResult, error)
	calls    []service.RecordParams
}

func (m *mockRecorder) Record(ctx context.Context, params service.RecordParams) (*service.RecordResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	if m.recordFn != nil {
		return m.recordFn(ctx, params)
	}
	return &service.RecordResult{}, nil
}

func (m *mockRecorder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
