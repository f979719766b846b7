package worker_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/queue"
	"basegraph.app/eventstore/internal/worker"
)

var _ = Describe("Reclaimer", func() {
	const (
		stream = "event_records"
		group  = "event_recorders"
		dlq    = "event_records_dlq"
	)

	var (
		ctx       context.Context
		client    *redis.Client
		consumer  *queue.RedisConsumer
		processed []queue.Message
		processor queue.MessageProcessor
	)

	newReclaimer := func(maxAttempts int64) *worker.Reclaimer {
		return worker.NewReclaimer(client, worker.ReclaimerConfig{
			Stream:      stream,
			Group:       group,
			Consumer:    "reclaimer",
			Interval:    time.Minute,
			BatchSize:   10,
			MaxAttempts: maxAttempts,
		}, consumer, processor)
	}

	BeforeEach(func() {
		ctx = context.Background()
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)

		consumer, err = queue.NewRedisConsumer(ctx, client, queue.ConsumerConfig{
			Stream:    stream,
			Group:     group,
			Consumer:  "crashed-worker",
			DLQStream: dlq,
			BatchSize: 10,
			Block:     20 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())

		processed = nil
		processor = func(_ context.Context, msg queue.Message) error {
			processed = append(processed, msg)
			return nil
		}

		producer := queue.NewRedisProducer(client, stream, nil)
		Expect(producer.Enqueue(ctx, queue.RecordMessage{
			OccurredAt:    time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			Payload:       json.RawMessage(`{}`),
			EventID:       "evt-stale",
			OperationType: model.OperationTypeDeleted,
			SubjectCode:   "FEAT-8",
			Attempt:       1,
		})).To(Succeed())

		// Read but never acked, as if the worker died mid-message.
		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(1))
	})

	It("hands stale pending messages back to the processor", func() {
		Expect(newReclaimer(0).ReclaimOnce(ctx)).To(Succeed())

		Expect(processed).To(HaveLen(1))
		Expect(processed[0].Record.EventID).To(Equal("evt-stale"))
		Expect(processed[0].Record.OperationType).To(Equal(model.OperationTypeDeleted))
	})

	It("dead-letters messages past the delivery limit", func() {
		Expect(newReclaimer(1).ReclaimOnce(ctx)).To(Succeed())

		Expect(processed).To(BeEmpty())
		dead, err := client.XRange(ctx, dlq, "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(dead).To(HaveLen(1))
		Expect(dead[0].Values).To(HaveKeyWithValue("event_id", "evt-stale"))
	})

	It("dead-letters stale messages it cannot parse", func() {
		rawID, err := client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]any{"event_id": "evt-broken", "operation_type": "ARCHIVED"},
		}).Result()
		Expect(err).NotTo(HaveOccurred())
		// Read past the parser so the broken entry sits in the pending list.
		Expect(client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: "crashed-worker",
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    20 * time.Millisecond,
		}).Err()).To(Succeed())

		Expect(newReclaimer(0).ReclaimOnce(ctx)).To(Succeed())

		Expect(processed).To(HaveLen(1))
		Expect(processed[0].Record.EventID).To(Equal("evt-stale"))

		dead, err := client.XRange(ctx, dlq, "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(dead).To(HaveLen(1))
		Expect(dead[0].Values).To(HaveKeyWithValue("event_id", "evt-broken"))
		Expect(dead[0].Values["error"]).To(ContainSubstring("ARCHIVED"))

		pending, err := client.XPendingExt(ctx, &redis.XPendingExtArgs{Stream: stream, Group: group, Start: "-", End: "+", Count: 10}).Result()
		Expect(err).NotTo(HaveOccurred())
		for _, p := range pending {
			Expect(p.ID).NotTo(Equal(rawID))
		}
	})

	It("does nothing when no messages are pending", func() {
		Expect(newReclaimer(0).ReclaimOnce(ctx)).To(Succeed())
		processed = nil

		// The first pass did not ack, so ack here to clear the pending list.
		pending, err := client.XPendingExt(ctx, &redis.XPendingExtArgs{Stream: stream, Group: group, Start: "-", End: "+", Count: 10}).Result()
		Expect(err).NotTo(HaveOccurred())
		for _, p := range pending {
			Expect(client.XAck(ctx, stream, group, p.ID).Err()).To(Succeed())
		}

		Expect(newReclaimer(0).ReclaimOnce(ctx)).To(Succeed())
		Expect(processed).To(BeEmpty())
	})
})
