package service

import (
	"context"
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

const DefaultMaxReplayRange = 365 * 24 * time.Hour

// EventDetail is the outcome of one candidate, in processing order.
type EventDetail struct {
	EventTimestamp time.Time
	EventID        string
	FeatureCode    string
	OperationType  model.OperationType
	Status         model.ReplayStatus
	Error          string
}

type ReplayResult struct {
	EventDetails   []EventDetail
	BatchID        int64
	TotalEvents    int
	ReplayedEvents int
	FailedEvents   int
}

type ReplayService interface {
	CountEventsInRange(ctx context.Context, start, end time.Time) (int64, error)
	ReplayByTimeRange(ctx context.Context, start, end time.Time) (*ReplayResult, error)
	ReplayByFeature(ctx context.Context, featureCode string) (*ReplayResult, error)
	ReplayByOperation(ctx context.Context, op model.OperationType, start, end time.Time) (*ReplayResult, error)
	ReplayByFeatures(ctx context.Context, featureCodes []string, start, end time.Time) (*ReplayResult, error)

	// FeatureRecords lists stored rows of one type for a feature, bookkeeping included.
	FeatureRecords(ctx context.Context, featureCode string, eventType model.EventType) ([]model.EventRecord, error)
}

type ReplayConfig struct {
	MaxRange time.Duration
}

type replayService struct {
	records    store.EventRecordStore
	dispatcher Dispatcher
	clock      clock.Clock
	cfg        ReplayConfig
	logger     *slog.Logger
}

func NewReplayService(records store.EventRecordStore, dispatcher Dispatcher, clk clock.Clock, cfg ReplayConfig, logger *slog.Logger) ReplayService {
	if clk == nil {
		clk = clock.Real()
	}
	if cfg.MaxRange <= 0 {
		cfg.MaxRange = DefaultMaxReplayRange
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &replayService{
		records:    records,
		dispatcher: dispatcher,
		clock:      clk,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *replayService) CountEventsInRange(ctx context.Context, start, end time.Time) (int64, error) {
	if err := validateOrder(start, end); err != nil {
		return 0, err
	}

	count, err := s.records.CountByTimeRange(ctx, start, end)
	if err != nil {
		return 0, &StorageError{Op: "counting events", Err: err}
	}
	return count, nil
}

func (s *replayService) ReplayByTimeRange(ctx context.Context, start, end time.Time) (*ReplayResult, error) {
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	candidates, err := s.records.FindByTimeRange(ctx, start, end)
	if err != nil {
		return nil, &StorageError{Op: "selecting events by time range", Err: err}
	}
	return s.replay(ctx, "time_range", candidates)
}

func (s *replayService) ReplayByFeature(ctx context.Context, featureCode string) (*ReplayResult, error) {
	featureCode = strings.TrimSpace(featureCode)
	if featureCode == "" {
		return nil, invalid("featureCode", "is required")
	}

	total, err := s.records.CountBySubjectCode(ctx, featureCode)
	if err != nil {
		return nil, &StorageError{Op: "counting feature records", Err: err}
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, featureCode)
	}

	candidates, err := s.records.FindByFeatureCode(ctx, featureCode, model.EventTypeEvent)
	if err != nil {
		return nil, &StorageError{Op: "selecting events by feature", Err: err}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{FeatureCode: &featureCode})
	return s.replay(ctx, "feature", candidates)
}

func (s *replayService) ReplayByOperation(ctx context.Context, op model.OperationType, start, end time.Time) (*ReplayResult, error) {
	if !op.Valid() {
		return nil, invalid("operationType", fmt.Sprintf("unknown operation type %q", op))
	}
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	candidates, err := s.records.FindByOperationType(ctx, op, start, end)
	if err != nil {
		return nil, &StorageError{Op: "selecting events by operation", Err: err}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{OperationType: logger.Ptr(string(op))})
	return s.replay(ctx, "operation", candidates)
}

func (s *replayService) ReplayByFeatures(ctx context.Context, featureCodes []string, start, end time.Time) (*ReplayResult, error) {
	codes, err := normalizeFeatureCodes(featureCodes)
	if err != nil {
		return nil, err
	}
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	candidates, err := s.records.FindByFeatureCodes(ctx, codes, start, end)
	if err != nil {
		return nil, &StorageError{Op: "selecting events by feature codes", Err: err}
	}
	return s.replay(ctx, "features", candidates)
}

func (s *replayService) FeatureRecords(ctx context.Context, featureCode string, eventType model.EventType) ([]model.EventRecord, error) {
	featureCode = strings.TrimSpace(featureCode)
	if featureCode == "" {
		return nil, invalid("featureCode", "is required")
	}
	if _, err := model.ParseEventType(string(eventType)); err != nil {
		return nil, invalid("type", err.Error())
	}

	records, err := s.records.FindByFeatureCode(ctx, featureCode, eventType)
	if err != nil {
		return nil, &StorageError{Op: "listing feature records", Err: err}
	}
	return records, nil
}

// replay processes candidates one at a time in the order given. Per-record
// decode and dispatch failures become FAILED details; only a bookkeeping
// write failure stops the batch.
func (s *replayService) replay(ctx context.Context, kind string, candidates []model.EventRecord) (*ReplayResult, error) {
	batchID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		BatchID:   &batchID,
		Component: "eventstore.service.replay",
	})

	span := logger.StartSpan(ctx, "replay."+kind)
	defer span.End()
	ctx = span.Context()

	s.logger.InfoContext(ctx, "replay batch started", "kind", kind, "candidates", len(candidates))
	start := time.Now()

	result := &ReplayResult{
		EventDetails: make([]EventDetail, 0, len(candidates)),
		BatchID:      batchID,
	}

	for _, record := range candidates {
		detail := s.replayOne(ctx, record)
		succeeded := detail.Status == model.ReplayStatusSuccess

		if err := s.records.UpdateReplayBookkeeping(ctx, record.EventID, record.EventType, succeeded, s.clock.Now()); err != nil {
			span.RecordError(err)
			s.logger.ErrorContext(ctx, "replay bookkeeping failed, aborting batch",
				"error", err,
				"event_id", record.EventID,
				"processed", result.TotalEvents)
			return nil, &StorageError{Op: "updating replay bookkeeping", Err: err}
		}

		result.EventDetails = append(result.EventDetails, detail)
		result.TotalEvents++
		if succeeded {
			result.ReplayedEvents++
		} else {
			result.FailedEvents++
		}
	}

	s.logger.InfoContext(ctx, "replay batch completed",
		"kind", kind,
		"total_events", result.TotalEvents,
		"replayed_events", result.ReplayedEvents,
		"failed_events", result.FailedEvents,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (s *replayService) replayOne(ctx context.Context, record model.EventRecord) EventDetail {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:  &record.EventID,
		RecordID: &record.ID,
	})

	detail := EventDetail{
		EventTimestamp: record.EventTimestamp,
		EventID:        record.EventID,
		FeatureCode:    record.SubjectCode,
		OperationType:  record.OperationType,
		Status:         model.ReplayStatusSuccess,
	}

	event, err := model.DecodeEvent(record)
	if err == nil {
		err = s.dispatch(ctx, event)
	}
	if err != nil {
		var decodeErr *model.DecodeError
		if errors.As(err, &decodeErr) {
			s.logger.WarnContext(ctx, "event payload could not be decoded", "error", err)
		} else {
			s.logger.WarnContext(ctx, "dispatcher rejected event", "error", err)
		}
		detail.Status = model.ReplayStatusFailed
		detail.Error = err.Error()
		return detail
	}

	s.logger.DebugContext(ctx, "event replayed")
	return detail
}

func (s *replayService) dispatch(ctx context.Context, event model.ReplayEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatcher panic: %v", r)
		}
	}()
	return s.dispatcher.Apply(ctx, event)
}

func (s *replayService) validateRange(start, end time.Time) error {
	if err := validateOrder(start, end); err != nil {
		return err
	}
	if end.Sub(start) > s.cfg.MaxRange {
		return invalid("range", fmt.Sprintf("must not span more than %d days", int(s.cfg.MaxRange/(24*time.Hour))))
	}
	return nil
}

func validateOrder(start, end time.Time) error {
	if start.IsZero() {
		return invalid("start", "is required")
	}
	if end.IsZero() {
		return invalid("end", "is required")
	}
	if start.After(end) {
		return invalid("range", "start must not be after end")
	}
	return nil
}

// normalizeFeatureCodes trims and de-duplicates codes, keeping first-seen order.
func normalizeFeatureCodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, invalid("featureCodes", "must not be empty")
	}

	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, invalid("featureCodes", "must not contain blank codes")
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}
