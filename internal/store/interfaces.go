package store

import (
	"context"
	"errors"
	"time"

	"basegraph.app/eventstore/internal/model"
)

var (
	// ErrNotFound is returned when a requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates the (event_id, EVENT) dedup constraint
	ErrDuplicate = errors.New("duplicate event record")
)

// EventRecordStore defines the contract for event record storage.
// Payloads are opaque here; nothing in this layer decodes them.
// Ordered queries sort by event_timestamp, then event_id, then row id.
type EventRecordStore interface {
	Append(ctx context.Context, record *model.EventRecord) (*model.EventRecord, error)
	ExistsByEventID(ctx context.Context, eventID string, eventType model.EventType) (bool, error)

	// CountByTimeRange counts EVENT rows with event_timestamp in [start, end].
	CountByTimeRange(ctx context.Context, start, end time.Time) (int64, error)
	// CountBySubjectCode counts rows of any type for a subject.
	CountBySubjectCode(ctx context.Context, code string) (int64, error)

	FindByTimeRange(ctx context.Context, start, end time.Time) ([]model.EventRecord, error)
	FindByFeatureCode(ctx context.Context, code string, eventType model.EventType) ([]model.EventRecord, error)
	FindByOperationType(ctx context.Context, op model.OperationType, start, end time.Time) ([]model.EventRecord, error)
	FindByFeatureCodes(ctx context.Context, codes []string, start, end time.Time) ([]model.EventRecord, error)

	// UpdateReplayBookkeeping sets last_replayed_at and replay_status and
	// increments replay_count only when success is true, in one row update.
	UpdateReplayBookkeeping(ctx context.Context, eventID string, eventType model.EventType, success bool, now time.Time) error
}
