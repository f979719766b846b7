package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"basegraph.app/eventstore/common/clock"
	"basegraph.app/eventstore/common/id"
	"basegraph.app/eventstore/common/logger"
	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/store"
)

// RecordParams describes one committed domain write.
type RecordParams struct {
	OccurredAt    time.Time           `json:"occurred_at"`
	Payload       json.RawMessage     `json:"payload"`
	ResultData    json.RawMessage     `json:"result,omitempty"`
	EventID       string              `json:"event_id"`
	OperationType model.OperationType `json:"operation_type"`
	SubjectCode   string              `json:"subject_code"`
	TraceID       string              `json:"trace_id,omitempty"`
	SubjectID     int64               `json:"subject_id"`
}

type RecordResult struct {
	API   *model.EventRecord
	Event *model.EventRecord // nil when deduplicated

	Deduplicated bool
}

type EventRecorder interface {
	Record(ctx context.Context, params RecordParams) (*RecordResult, error)
}

type eventRecorder struct {
	txRunner  TxRunner
	clock     clock.Clock
	retention time.Duration
	logger    *slog.Logger
}

// NewEventRecorder builds the recorder. A zero retention leaves expires_at unset.
func NewEventRecorder(txRunner TxRunner, clk clock.Clock, retention time.Duration, logger *slog.Logger) EventRecorder {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &eventRecorder{
		txRunner:  txRunner,
		clock:     clk,
		retention: retention,
		logger:    logger,
	}
}

func (r *eventRecorder) Record(ctx context.Context, params RecordParams) (*RecordResult, error) {
	if err := validateRecordParams(params); err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:       &params.EventID,
		FeatureCode:   &params.SubjectCode,
		OperationType: logger.Ptr(string(params.OperationType)),
		Component:     "eventstore.service.recorder",
	})

	result, err := r.record(ctx, params)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent recorder for the same event id. The
		// transaction rolled back, so running it again writes the API row and
		// sees the winner's EVENT row.
		r.logger.DebugContext(ctx, "event row inserted concurrently, retrying as duplicate")
		result, err = r.record(ctx, params)
	}
	if err != nil {
		return nil, err
	}

	if result.Deduplicated {
		r.logger.InfoContext(ctx, "duplicate event deduped", "api_record_id", result.API.ID)
	} else {
		r.logger.InfoContext(ctx, "event recorded",
			"api_record_id", result.API.ID,
			"event_record_id", result.Event.ID)
	}
	return result, nil
}

func (r *eventRecorder) record(ctx context.Context, params RecordParams) (*RecordResult, error) {
	processedAt := r.clock.Now()
	var expiresAt *time.Time
	if r.retention > 0 {
		t := processedAt.Add(r.retention)
		expiresAt = &t
	}

	newRecord := func(eventType model.EventType) *model.EventRecord {
		return &model.EventRecord{
			ID:             id.New(),
			EventID:        params.EventID,
			EventType:      eventType,
			OperationType:  params.OperationType,
			SubjectID:      params.SubjectID,
			SubjectCode:    params.SubjectCode,
			Payload:        params.Payload,
			ResultData:     params.ResultData,
			EventTimestamp: params.OccurredAt.UTC(),
			ProcessedAt:    processedAt,
			ExpiresAt:      expiresAt,
		}
	}

	result := &RecordResult{}
	err := r.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		records := sp.EventRecords()

		// EVENT first: a duplicate then fails before the API row is written,
		// which keeps the non-transactional memory driver free of orphans.
		exists, err := records.ExistsByEventID(ctx, params.EventID, model.EventTypeEvent)
		if err != nil {
			return fmt.Errorf("checking existing event: %w", err)
		}
		if exists {
			result.Deduplicated = true
		} else {
			result.Event, err = records.Append(ctx, newRecord(model.EventTypeEvent))
			if err != nil {
				return fmt.Errorf("appending event record: %w", err)
			}
		}

		result.API, err = records.Append(ctx, newRecord(model.EventTypeAPI))
		if err != nil {
			return fmt.Errorf("appending api record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateRecordParams(params RecordParams) error {
	if strings.TrimSpace(params.EventID) == "" {
		return invalid("event_id", "is required")
	}
	if !params.OperationType.Valid() {
		return invalid("operation_type", fmt.Sprintf("unknown operation type %q", params.OperationType))
	}
	if strings.TrimSpace(params.SubjectCode) == "" {
		return invalid("subject_code", "is required")
	}
	if params.OccurredAt.IsZero() {
		return invalid("occurred_at", "is required")
	}
	return nil
}
