package queue_test

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
)

const (
	stream    = "event_records"
	group     = "event_recorders"
	dlqStream = "event_records_dlq"
)

var _ = Describe("Redis record queue", func() {
	var (
		ctx      context.Context
		mr       *miniredis.Miniredis
		client   *redis.Client
		producer queue.Producer
		consumer *queue.RedisConsumer
		msg      queue.RecordMessage
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		producer = queue.NewRedisProducer(client, stream, nil)
		DeferCleanup(producer.Close)

		consumer, err = queue.NewRedisConsumer(ctx, client, queue.ConsumerConfig{
			Stream:    stream,
			Group:     group,
			Consumer:  "test-consumer",
			DLQStream: dlqStream,
			BatchSize: 10,
			Block:     20 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())

		msg = queue.RecordMessage{
			OccurredAt:    time.Date(2025, 4, 2, 10, 30, 0, 123456000, time.UTC),
			Payload:       json.RawMessage(`{"title":"Roadmap v2"}`),
			ResultData:    json.RawMessage(`{"ok":true}`),
			EventID:       "evt-123",
			OperationType: model.OperationTypeCreated,
			SubjectCode:   "REL-7",
			TraceID:       "4bf92f3577b34da6a3ce929d0e0e4736",
			SubjectID:     7,
			Attempt:       1,
		}
	})

	It("delivers an enqueued record message intact", func() {
		Expect(producer.Enqueue(ctx, msg)).To(Succeed())

		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(1))

		got := messages[0]
		Expect(got.ID).NotTo(BeEmpty())
		Expect(got.Attempt).To(Equal(1))
		Expect(got.Record.EventID).To(Equal("evt-123"))
		Expect(got.Record.OperationType).To(Equal(model.OperationTypeCreated))
		Expect(got.Record.SubjectID).To(Equal(int64(7)))
		Expect(got.Record.SubjectCode).To(Equal("REL-7"))
		Expect(got.Record.OccurredAt).To(BeTemporally("==", msg.OccurredAt))
		Expect(string(got.Record.Payload)).To(Equal(`{"title":"Roadmap v2"}`))
		Expect(string(got.Record.ResultData)).To(Equal(`{"ok":true}`))
		Expect(got.Record.TraceID).To(Equal(msg.TraceID))
	})

	It("returns no messages when the stream is idle", func() {
		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(BeEmpty())
	})

	It("tolerates a consumer group that already exists", func() {
		_, err := queue.NewRedisConsumer(ctx, client, queue.ConsumerConfig{Stream: stream, Group: group})
		Expect(err).NotTo(HaveOccurred())
	})

	It("clears the pending entry on ack", func() {
		Expect(producer.Enqueue(ctx, msg)).To(Succeed())
		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(consumer.Ack(ctx, messages[0])).To(Succeed())

		pending, err := client.XPending(ctx, stream, group).Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending.Count).To(Equal(int64(0)))
	})

	It("requeues with the attempt counter bumped", func() {
		Expect(producer.Enqueue(ctx, msg)).To(Succeed())
		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(consumer.Requeue(ctx, messages[0], "db unavailable")).To(Succeed())

		retried, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(retried).To(HaveLen(1))
		Expect(retried[0].Attempt).To(Equal(2))
		Expect(retried[0].Record.EventID).To(Equal("evt-123"))
		Expect(retried[0].Raw.Values).To(HaveKeyWithValue("last_error", "db unavailable"))
	})

	It("moves exhausted messages to the dead letter stream", func() {
		Expect(producer.Enqueue(ctx, msg)).To(Succeed())
		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(consumer.SendDLQ(ctx, messages[0], "gave up")).To(Succeed())

		dead, err := client.XRange(ctx, dlqStream, "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(dead).To(HaveLen(1))
		Expect(dead[0].Values).To(HaveKeyWithValue("error", "gave up"))
		Expect(dead[0].Values).To(HaveKeyWithValue("event_id", "evt-123"))
	})

	It("dead-letters messages it cannot parse", func() {
		Expect(client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]any{"event_id": "evt-x", "operation_type": "ARCHIVED"},
		}).Err()).To(Succeed())

		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(BeEmpty())

		dead, err := client.XRange(ctx, dlqStream, "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(dead).To(HaveLen(1))
		Expect(dead[0].Values["error"]).To(ContainSubstring("ARCHIVED"))
	})

	Context("when the dead letter stream rejects writes", func() {
		BeforeEach(func() {
			Expect(mr.Set(dlqStream, "not-a-stream")).To(Succeed())
		})

		pendingCount := func() int64 {
			pending, err := client.XPending(ctx, stream, group).Result()
			Expect(err).NotTo(HaveOccurred())
			return pending.Count
		}

		It("leaves an exhausted message pending", func() {
			Expect(producer.Enqueue(ctx, msg)).To(Succeed())
			messages, err := consumer.Read(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(consumer.SendDLQ(ctx, messages[0], "gave up")).NotTo(Succeed())
			Expect(pendingCount()).To(Equal(int64(1)))
		})

		It("leaves an unparseable message pending", func() {
			Expect(client.XAdd(ctx, &redis.XAddArgs{
				Stream: stream,
				Values: map[string]any{"event_id": "evt-x"},
			}).Err()).To(Succeed())

			messages, err := consumer.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(BeEmpty())
			Expect(pendingCount()).To(Equal(int64(1)))
		})
	})
})

const deleteKey = "<delete>"

var _ = Describe("ParseMessage", func() {
	var values map[string]any

	BeforeEach(func() {
		values = map[string]any{
			"event_id":       "evt-1",
			"operation_type": "UPDATED",
			"subject_id":     "9",
			"subject_code":   "FEAT-9",
			"occurred_at":    "2025-04-02T10:30:00Z",
			"payload":        `{"a":1}`,
		}
	})

	It("defaults the attempt to 1", func() {
		parsed, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Attempt).To(Equal(1))
		Expect(parsed.Record.ResultData).To(BeNil())
	})

	DescribeTable("rejects malformed messages",
		func(key string, value string) {
			if value == deleteKey {
				delete(values, key)
			} else {
				values[key] = value
			}
			_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
			Expect(err).To(HaveOccurred())
		},
		Entry("missing event id", "event_id", deleteKey),
		Entry("empty event id", "event_id", ""),
		Entry("unknown operation", "operation_type", "MERGED"),
		Entry("non-numeric subject id", "subject_id", "abc"),
		Entry("bad timestamp", "occurred_at", "yesterday"),
		Entry("missing payload", "payload", deleteKey),
		Entry("bad attempt", "attempt", "x"),
	)
})
