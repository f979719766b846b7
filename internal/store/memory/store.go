// Package memory provides an in-memory implementation of store.EventRecordStore.
// It backs the service tests and the STORE_DRIVER=memory development mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/store"
)

// Store is a thread-safe in-memory event record store.
// The zero value is ready for use.
type Store struct {
	mu      sync.RWMutex
	records []model.EventRecord
	events  map[string]int // event_id -> index of its EVENT row
}

func New() *Store {
	return &Store{events: make(map[string]int)}
}

// EventRecords lets Store stand in wherever a store provider is expected.
func (s *Store) EventRecords() store.EventRecordStore {
	return s
}

func (s *Store) Append(_ context.Context, record *model.EventRecord) (*model.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.events == nil {
		s.events = make(map[string]int)
	}

	if record.EventType == model.EventTypeEvent {
		if _, exists := s.events[record.EventID]; exists {
			return nil, fmt.Errorf("%w: event_id=%s event_type=%s", store.ErrDuplicate, record.EventID, record.EventType)
		}
	}

	stored := cloneRecord(*record)
	stored.ReplayCount = 0
	stored.LastReplayedAt = nil
	stored.ReplayStatus = nil

	s.records = append(s.records, stored)
	if stored.EventType == model.EventTypeEvent {
		s.events[stored.EventID] = len(s.records) - 1
	}

	out := cloneRecord(stored)
	return &out, nil
}

func (s *Store) ExistsByEventID(_ context.Context, eventID string, eventType model.EventType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.EventID == eventID && r.EventType == eventType {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountByTimeRange(_ context.Context, start, end time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.records {
		if r.EventType == model.EventTypeEvent && inRange(r.EventTimestamp, start, end) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountBySubjectCode(_ context.Context, code string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.records {
		if r.SubjectCode == code {
			count++
		}
	}
	return count, nil
}

func (s *Store) FindByTimeRange(_ context.Context, start, end time.Time) ([]model.EventRecord, error) {
	return s.find(func(r model.EventRecord) bool {
		return r.EventType == model.EventTypeEvent && inRange(r.EventTimestamp, start, end)
	}), nil
}

func (s *Store) FindByFeatureCode(_ context.Context, code string, eventType model.EventType) ([]model.EventRecord, error) {
	return s.find(func(r model.EventRecord) bool {
		return r.SubjectCode == code && r.EventType == eventType
	}), nil
}

func (s *Store) FindByOperationType(_ context.Context, op model.OperationType, start, end time.Time) ([]model.EventRecord, error) {
	return s.find(func(r model.EventRecord) bool {
		return r.EventType == model.EventTypeEvent && r.OperationType == op && inRange(r.EventTimestamp, start, end)
	}), nil
}

func (s *Store) FindByFeatureCodes(_ context.Context, codes []string, start, end time.Time) ([]model.EventRecord, error) {
	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[code] = struct{}{}
	}
	return s.find(func(r model.EventRecord) bool {
		_, ok := wanted[r.SubjectCode]
		return ok && r.EventType == model.EventTypeEvent && inRange(r.EventTimestamp, start, end)
	}), nil
}

func (s *Store) UpdateReplayBookkeeping(_ context.Context, eventID string, eventType model.EventType, success bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := model.ReplayStatusFailed
	if success {
		status = model.ReplayStatusSuccess
	}

	matched := false
	for i := range s.records {
		r := &s.records[i]
		if r.EventID != eventID || r.EventType != eventType {
			continue
		}
		matched = true
		replayedAt := now
		st := status
		r.LastReplayedAt = &replayedAt
		r.ReplayStatus = &st
		if success {
			r.ReplayCount++
		}
	}

	if !matched {
		return store.ErrNotFound
	}
	return nil
}

// All returns every stored row in insertion order.
func (s *Store) All() []model.EventRecord {
	return s.find(nil)
}

func (s *Store) find(match func(model.EventRecord) bool) []model.EventRecord {
	s.mu.RLock()
	result := make([]model.EventRecord, 0)
	for _, r := range s.records {
		if match == nil || match(r) {
			result = append(result, cloneRecord(r))
		}
	}
	s.mu.RUnlock()

	if match == nil {
		return result
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.EventTimestamp.Equal(b.EventTimestamp) {
			return a.EventTimestamp.Before(b.EventTimestamp)
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		return a.ID < b.ID
	})
	return result
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func cloneRecord(r model.EventRecord) model.EventRecord {
	out := r
	if r.Payload != nil {
		out.Payload = append([]byte(nil), r.Payload...)
	}
	if r.ResultData != nil {
		out.ResultData = append([]byte(nil), r.ResultData...)
	}
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		out.ExpiresAt = &t
	}
	if r.LastReplayedAt != nil {
		t := *r.LastReplayedAt
		out.LastReplayedAt = &t
	}
	if r.ReplayStatus != nil {
		st := *r.ReplayStatus
		out.ReplayStatus = &st
	}
	return out
}
