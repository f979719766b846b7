package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"basegraph.app/eventstore/core/db/sqlc"
	"basegraph.app/eventstore/internal/model"
)

const (
	uniqueViolation = "23505"

	// Partial unique index over (event_id) WHERE event_type = 'EVENT'.
	eventDedupConstraint = "event_records_event_id_event_uq"
)

type eventRecordStore struct {
	queries *sqlc.Queries
}

func newEventRecordStore(queries *sqlc.Queries) EventRecordStore {
	return &eventRecordStore{queries: queries}
}

func (s *eventRecordStore) Append(ctx context.Context, record *model.EventRecord) (*model.EventRecord, error) {
	row, err := s.queries.CreateEventRecord(ctx, sqlc.CreateEventRecordParams{
		ID:             record.ID,
		EventID:        record.EventID,
		EventType:      string(record.EventType),
		OperationType:  string(record.OperationType),
		SubjectID:      record.SubjectID,
		SubjectCode:    record.SubjectCode,
		EventPayload:   []byte(record.Payload),
		EventTimestamp: toTimestamp(record.EventTimestamp),
		ProcessedAt:    toTimestamp(record.ProcessedAt),
		ExpiresAt:      toNullableTimestamp(record.ExpiresAt),
		ResultData:     []byte(record.ResultData),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == eventDedupConstraint {
			return nil, fmt.Errorf("%w: event_id=%s event_type=%s", ErrDuplicate, record.EventID, record.EventType)
		}
		return nil, fmt.Errorf("inserting event record: %w", err)
	}
	return toEventRecordModel(row)
}

func (s *eventRecordStore) ExistsByEventID(ctx context.Context, eventID string, eventType model.EventType) (bool, error) {
	exists, err := s.queries.EventRecordExists(ctx, sqlc.EventRecordExistsParams{
		EventID:   eventID,
		EventType: string(eventType),
	})
	if err != nil {
		return false, fmt.Errorf("checking event record: %w", err)
	}
	return exists, nil
}

func (s *eventRecordStore) CountByTimeRange(ctx context.Context, start, end time.Time) (int64, error) {
	count, err := s.queries.CountEventRecordsByTimeRange(ctx, sqlc.CountEventRecordsByTimeRangeParams{
		StartTime: toTimestamp(start),
		EndTime:   toTimestamp(end),
	})
	if err != nil {
		return 0, fmt.Errorf("counting event records: %w", err)
	}
	return count, nil
}

func (s *eventRecordStore) CountBySubjectCode(ctx context.Context, code string) (int64, error) {
	count, err := s.queries.CountEventRecordsBySubjectCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("counting event records for %s: %w", code, err)
	}
	return count, nil
}

func (s *eventRecordStore) FindByTimeRange(ctx context.Context, start, end time.Time) ([]model.EventRecord, error) {
	rows, err := s.queries.ListEventRecordsByTimeRange(ctx, sqlc.ListEventRecordsByTimeRangeParams{
		StartTime: toTimestamp(start),
		EndTime:   toTimestamp(end),
	})
	if err != nil {
		return nil, fmt.Errorf("listing event records by time range: %w", err)
	}
	return toEventRecordModels(rows)
}

func (s *eventRecordStore) FindByFeatureCode(ctx context.Context, code string, eventType model.EventType) ([]model.EventRecord, error) {
	rows, err := s.queries.ListEventRecordsBySubjectCode(ctx, sqlc.ListEventRecordsBySubjectCodeParams{
		SubjectCode: code,
		EventType:   string(eventType),
	})
	if err != nil {
		return nil, fmt.Errorf("listing event records for %s: %w", code, err)
	}
	return toEventRecordModels(rows)
}

func (s *eventRecordStore) FindByOperationType(ctx context.Context, op model.OperationType, start, end time.Time) ([]model.EventRecord, error) {
	rows, err := s.queries.ListEventRecordsByOperationType(ctx, sqlc.ListEventRecordsByOperationTypeParams{
		OperationType: string(op),
		StartTime:     toTimestamp(start),
		EndTime:       toTimestamp(end),
	})
	if err != nil {
		return nil, fmt.Errorf("listing event records by operation %s: %w", op, err)
	}
	return toEventRecordModels(rows)
}

func (s *eventRecordStore) FindByFeatureCodes(ctx context.Context, codes []string, start, end time.Time) ([]model.EventRecord, error) {
	rows, err := s.queries.ListEventRecordsBySubjectCodes(ctx, sqlc.ListEventRecordsBySubjectCodesParams{
		SubjectCodes: codes,
		StartTime:    toTimestamp(start),
		EndTime:      toTimestamp(end),
	})
	if err != nil {
		return nil, fmt.Errorf("listing event records by feature codes: %w", err)
	}
	return toEventRecordModels(rows)
}

func (s *eventRecordStore) UpdateReplayBookkeeping(ctx context.Context, eventID string, eventType model.EventType, success bool, now time.Time) error {
	status := string(model.ReplayStatusFailed)
	var increment int32
	if success {
		status = string(model.ReplayStatusSuccess)
		increment = 1
	}

	affected, err := s.queries.UpdateEventRecordReplay(ctx, sqlc.UpdateEventRecordReplayParams{
		ReplayedAt:   toTimestamp(now),
		ReplayStatus: &status,
		Increment:    increment,
		EventID:      eventID,
		EventType:    string(eventType),
	})
	if err != nil {
		return fmt.Errorf("updating replay bookkeeping for %s: %w", eventID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func toEventRecordModels(rows []sqlc.EventRecord) ([]model.EventRecord, error) {
	result := make([]model.EventRecord, 0, len(rows))
	for _, row := range rows {
		record, err := toEventRecordModel(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, nil
}

func toEventRecordModel(row sqlc.EventRecord) (*model.EventRecord, error) {
	eventType, err := model.ParseEventType(row.EventType)
	if err != nil {
		return nil, fmt.Errorf("event record %d: %w", row.ID, err)
	}

	var status *model.ReplayStatus
	if row.ReplayStatus != nil {
		parsed, err := model.ParseReplayStatus(*row.ReplayStatus)
		if err != nil {
			return nil, fmt.Errorf("event record %d: %w", row.ID, err)
		}
		status = &parsed
	}

	return &model.EventRecord{
		ID:             row.ID,
		EventID:        row.EventID,
		EventType:      eventType,
		OperationType:  model.OperationType(row.OperationType),
		SubjectID:      row.SubjectID,
		SubjectCode:    row.SubjectCode,
		Payload:        row.EventPayload,
		EventTimestamp: row.EventTimestamp.Time,
		ProcessedAt:    row.ProcessedAt.Time,
		ExpiresAt:      toTimePointer(row.ExpiresAt),
		ResultData:     row.ResultData,
		ReplayCount:    int(row.ReplayCount),
		LastReplayedAt: toTimePointer(row.LastReplayedAt),
		ReplayStatus:   status,
	}, nil
}

func toTimestamp(value time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: value, Valid: true}
}

func toNullableTimestamp(value *time.Time) pgtype.Timestamptz {
	if value == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{
		Time:  *value,
		Valid: true,
	}
}

func toTimePointer(value pgtype.Timestamptz) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}
