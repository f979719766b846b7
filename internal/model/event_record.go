package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType distinguishes the raw request envelope from the canonical,
// replayable domain event. Every logical operation produces one of each.
type EventType string

const (
	EventTypeAPI   EventType = "API"
	EventTypeEvent EventType = "EVENT"
)

func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventTypeAPI:
		return EventTypeAPI, nil
	case EventTypeEvent:
		return EventTypeEvent, nil
	default:
		return "", fmt.Errorf("unknown event type %q", s)
	}
}

func (t EventType) Replayable() bool {
	return t == EventTypeEvent
}

type OperationType string

const (
	OperationTypeCreated       OperationType = "CREATED"
	OperationTypeUpdated       OperationType = "UPDATED"
	OperationTypeDeleted       OperationType = "DELETED"
	OperationTypeStatusChanged OperationType = "STATUS_CHANGED"
)

// OperationTypes lists every recognized operation tag.
var OperationTypes = []OperationType{
	OperationTypeCreated,
	OperationTypeUpdated,
	OperationTypeDeleted,
	OperationTypeStatusChanged,
}

func (o OperationType) Valid() bool {
	for _, known := range OperationTypes {
		if o == known {
			return true
		}
	}
	return false
}

type ReplayStatus string

const (
	ReplayStatusSuccess ReplayStatus = "SUCCESS"
	ReplayStatusFailed  ReplayStatus = "FAILED"
)

func ParseReplayStatus(s string) (ReplayStatus, error) {
	switch ReplayStatus(s) {
	case ReplayStatusSuccess:
		return ReplayStatusSuccess, nil
	case ReplayStatusFailed:
		return ReplayStatusFailed, nil
	default:
		return "", fmt.Errorf("unknown replay status %q", s)
	}
}

// EventRecord is one stored row. EventTimestamp and ProcessedAt are
// write-once; only the replay bookkeeping fields change after insert.
type EventRecord struct {
	EventTimestamp time.Time       `json:"event_timestamp"`
	ProcessedAt    time.Time       `json:"processed_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	LastReplayedAt *time.Time      `json:"last_replayed_at,omitempty"`
	ReplayStatus   *ReplayStatus   `json:"replay_status,omitempty"`
	Payload        json.RawMessage `json:"event_payload"`
	ResultData     json.RawMessage `json:"result_data,omitempty"`
	EventID        string          `json:"event_id"`
	EventType      EventType       `json:"event_type"`
	OperationType  OperationType   `json:"operation_type"`
	SubjectCode    string          `json:"subject_code"`
	ID             int64           `json:"id"`
	SubjectID      int64           `json:"subject_id"`
	ReplayCount    int             `json:"replay_count"`
}
