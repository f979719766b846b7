package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"basegraph.app/eventstore/internal/dispatch"
	"basegraph.app/eventstore/internal/model"
)

func sampleEvent(op model.OperationType) model.ReplayEvent {
	return model.ReplayEvent{
		OccurredAt:    time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC),
		Payload:       json.RawMessage(`{"status":"SHIPPED"}`),
		EventID:       "evt-55",
		OperationType: op,
		SubjectCode:   "FEAT-55",
		RecordID:      5501,
		SubjectID:     55,
		ReplayCount:   2,
	}
}

var _ = Describe("StreamDispatcher", func() {
	var (
		ctx    context.Context
		client *redis.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(func() { _ = client.Close() })
	})

	It("republishes the event marked as replayed", func() {
		d := dispatch.NewStreamDispatcher(client, "replayed_events", nil)

		Expect(d.Apply(ctx, sampleEvent(model.OperationTypeStatusChanged))).To(Succeed())

		entries, err := client.XRange(ctx, "replayed_events", "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))

		values := entries[0].Values
		Expect(values).To(HaveKeyWithValue("replayed", "true"))
		Expect(values).To(HaveKeyWithValue("event_id", "evt-55"))
		Expect(values).To(HaveKeyWithValue("operation_type", "STATUS_CHANGED"))
		Expect(values).To(HaveKeyWithValue("subject_code", "FEAT-55"))
		Expect(values).To(HaveKeyWithValue("payload", `{"status":"SHIPPED"}`))
		Expect(values).To(HaveKeyWithValue("occurred_at", "2025-05-05T05:05:05Z"))
		Expect(values).To(HaveKeyWithValue("replay_count", "2"))
	})

	It("surfaces redis failures", func() {
		d := dispatch.NewStreamDispatcher(client, "replayed_events", nil)
		Expect(client.Close()).To(Succeed())

		err := d.Apply(ctx, sampleEvent(model.OperationTypeCreated))
		Expect(err).To(MatchError(ContainSubstring("evt-55")))
	})
})

var _ = Describe("Router", func() {
	var (
		ctx   context.Context
		calls []string
	)

	handler := func(name string) dispatch.HandlerFunc {
		return func(context.Context, model.ReplayEvent) error {
			calls = append(calls, name)
			return nil
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		calls = nil
	})

	It("routes by operation type", func() {
		r := dispatch.NewRouter().
			Handle(model.OperationTypeCreated, handler("created")).
			Handle(model.OperationTypeDeleted, handler("deleted"))

		Expect(r.Apply(ctx, sampleEvent(model.OperationTypeDeleted))).To(Succeed())
		Expect(r.Apply(ctx, sampleEvent(model.OperationTypeCreated))).To(Succeed())
		Expect(calls).To(Equal([]string{"deleted", "created"}))
	})

	It("uses the fallback for unrouted operations", func() {
		r := dispatch.NewRouter().
			Handle(model.OperationTypeCreated, handler("created")).
			Fallback(handler("fallback"))

		Expect(r.Apply(ctx, sampleEvent(model.OperationTypeUpdated))).To(Succeed())
		Expect(calls).To(Equal([]string{"fallback"}))
	})

	It("fails unrouted operations without a fallback", func() {
		r := dispatch.NewRouter().Handle(model.OperationTypeCreated, handler("created"))

		err := r.Apply(ctx, sampleEvent(model.OperationTypeUpdated))
		Expect(errors.Is(err, dispatch.ErrNoRoute)).To(BeTrue())
		Expect(calls).To(BeEmpty())
	})

	It("passes handler errors through", func() {
		r := dispatch.NewRouter().Handle(model.OperationTypeCreated, dispatch.HandlerFunc(
			func(context.Context, model.ReplayEvent) error { return errors.New("boom") },
		))

		Expect(r.Apply(ctx, sampleEvent(model.OperationTypeCreated))).To(MatchError("boom"))
	})
})
