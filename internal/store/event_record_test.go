package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/eventstore/core/db/sqlc"
	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/store"
)

var _ = Describe("EventRecordStore (postgres)", func() {
	var (
		ctx     context.Context
		dbtx    *mockDBTX
		records store.EventRecordStore
	)

	occurred := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	processed := occurred.Add(time.Second)

	row := func(eventID, eventType string) sqlc.EventRecord {
		return sqlc.EventRecord{
			ID:             101,
			EventID:        eventID,
			EventType:      eventType,
			OperationType:  string(model.OperationTypeCreated),
			SubjectID:      7,
			SubjectCode:    "FEAT-7",
			EventPayload:   []byte(`{"name":"x"}`),
			EventTimestamp: pgtype.Timestamptz{Time: occurred, Valid: true},
			ProcessedAt:    pgtype.Timestamptz{Time: processed, Valid: true},
		}
	}

	newRecord := func() *model.EventRecord {
		return &model.EventRecord{
			ID:             101,
			EventID:        "evt-1",
			EventType:      model.EventTypeEvent,
			OperationType:  model.OperationTypeCreated,
			SubjectID:      7,
			SubjectCode:    "FEAT-7",
			Payload:        []byte(`{"name":"x"}`),
			EventTimestamp: occurred,
			ProcessedAt:    processed,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		dbtx = &mockDBTX{}
		records = store.NewStores(sqlc.New(dbtx)).EventRecords()
	})

	Describe("Append", func() {
		It("returns the inserted row", func() {
			dbtx.queryRowFn = func(_ string, _ ...interface{}) pgx.Row {
				return &mockRow{values: columns(row("evt-1", "EVENT"))}
			}

			got, err := records.Append(ctx, newRecord())

			Expect(err).NotTo(HaveOccurred())
			Expect(got.EventType).To(Equal(model.EventTypeEvent))
			Expect(got.EventTimestamp).To(BeTemporally("==", occurred))
			Expect(got.ReplayCount).To(BeZero())
			Expect(got.ReplayStatus).To(BeNil())
			Expect(got.ExpiresAt).To(BeNil())
		})

		It("maps the EVENT dedup violation to ErrDuplicate", func() {
			dbtx.queryRowFn = func(_ string, _ ...interface{}) pgx.Row {
				return &mockRow{err: &pgconn.PgError{
					Code:           "23505",
					ConstraintName: "event_records_event_id_event_uq",
				}}
			}

			_, err := records.Append(ctx, newRecord())

			Expect(err).To(MatchError(store.ErrDuplicate))
		})

		It("does not treat other unique violations as duplicates", func() {
			dbtx.queryRowFn = func(_ string, _ ...interface{}) pgx.Row {
				return &mockRow{err: &pgconn.PgError{
					Code:           "23505",
					ConstraintName: "event_records_pkey",
				}}
			}

			_, err := records.Append(ctx, newRecord())

			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, store.ErrDuplicate)).To(BeFalse())
			var pgErr *pgconn.PgError
			Expect(errors.As(err, &pgErr)).To(BeTrue())
		})

		It("rejects a stored row with an unknown event type", func() {
			dbtx.queryRowFn = func(_ string, _ ...interface{}) pgx.Row {
				return &mockRow{values: columns(row("evt-1", "AUDIT"))}
			}

			_, err := records.Append(ctx, newRecord())

			Expect(err).To(MatchError(ContainSubstring(`unknown event type "AUDIT"`)))
		})
	})

	Describe("UpdateReplayBookkeeping", func() {
		It("increments on success", func() {
			err := records.UpdateReplayBookkeeping(ctx, "evt-1", model.EventTypeEvent, true, processed)

			Expect(err).NotTo(HaveOccurred())
			Expect(dbtx.calls).To(HaveLen(1))
			args := dbtx.calls[0].args
			Expect(*args[1].(*string)).To(Equal("SUCCESS"))
			Expect(args[2]).To(Equal(int32(1)))
			Expect(args[3]).To(Equal("evt-1"))
			Expect(args[4]).To(Equal("EVENT"))
		})

		It("does not increment on failure", func() {
			err := records.UpdateReplayBookkeeping(ctx, "evt-1", model.EventTypeEvent, false, processed)

			Expect(err).NotTo(HaveOccurred())
			args := dbtx.calls[0].args
			Expect(*args[1].(*string)).To(Equal("FAILED"))
			Expect(args[2]).To(Equal(int32(0)))
		})

		It("returns ErrNotFound when no row matched", func() {
			dbtx.execFn = func(_ string, _ ...interface{}) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			}

			err := records.UpdateReplayBookkeeping(ctx, "evt-missing", model.EventTypeEvent, true, processed)

			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("wraps driver errors", func() {
			dbtx.execFn = func(_ string, _ ...interface{}) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("connection reset")
			}

			err := records.UpdateReplayBookkeeping(ctx, "evt-1", model.EventTypeEvent, true, processed)

			Expect(err).To(MatchError(ContainSubstring("connection reset")))
			Expect(errors.Is(err, store.ErrNotFound)).To(BeFalse())
		})
	})

	Describe("ordered queries", func() {
		It("maps rows with bookkeeping", func() {
			replayed := processed.Add(time.Hour)
			status := "FAILED"
			r := row("evt-2", "EVENT")
			r.ReplayCount = 2
			r.LastReplayedAt = pgtype.Timestamptz{Time: replayed, Valid: true}
			r.ReplayStatus = &status
			dbtx.queryFn = func(_ string, _ ...interface{}) (pgx.Rows, error) {
				return &mockRows{rows: [][]any{columns(row("evt-1", "EVENT")), columns(r)}}, nil
			}

			got, err := records.FindByFeatureCode(ctx, "FEAT-7", model.EventTypeEvent)

			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].EventID).To(Equal("evt-1"))
			Expect(got[1].ReplayCount).To(Equal(2))
			Expect(*got[1].LastReplayedAt).To(BeTemporally("==", replayed))
			Expect(*got[1].ReplayStatus).To(Equal(model.ReplayStatusFailed))
		})

		It("returns an empty slice when nothing matches", func() {
			got, err := records.FindByTimeRange(ctx, occurred, processed)

			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(BeNil())
			Expect(got).To(BeEmpty())
		})

		It("fails on an unknown event type", func() {
			dbtx.queryFn = func(_ string, _ ...interface{}) (pgx.Rows, error) {
				return &mockRows{rows: [][]any{columns(row("evt-1", "AUDIT"))}}, nil
			}

			_, err := records.FindByTimeRange(ctx, occurred, processed)

			Expect(err).To(MatchError(ContainSubstring("unknown event type")))
		})

		It("fails on an unknown replay status", func() {
			status := "PENDING"
			r := row("evt-1", "EVENT")
			r.ReplayStatus = &status
			dbtx.queryFn = func(_ string, _ ...interface{}) (pgx.Rows, error) {
				return &mockRows{rows: [][]any{columns(r)}}, nil
			}

			_, err := records.FindByOperationType(ctx, model.OperationTypeCreated, occurred, processed)

			Expect(err).To(HaveOccurred())
		})

		It("breaks event_id ties by byte order, like the memory store", func() {
			_, err := records.FindByTimeRange(ctx, occurred, processed)
			Expect(err).NotTo(HaveOccurred())
			_, err = records.FindByFeatureCode(ctx, "FEAT-7", model.EventTypeEvent)
			Expect(err).NotTo(HaveOccurred())
			_, err = records.FindByOperationType(ctx, model.OperationTypeCreated, occurred, processed)
			Expect(err).NotTo(HaveOccurred())
			_, err = records.FindByFeatureCodes(ctx, []string{"FEAT-7"}, occurred, processed)
			Expect(err).NotTo(HaveOccurred())

			Expect(dbtx.calls).To(HaveLen(4))
			for _, c := range dbtx.calls {
				Expect(c.sql).To(ContainSubstring(`ORDER BY event_timestamp ASC, event_id COLLATE "C" ASC, id ASC`))
			}
		})
	})
})
