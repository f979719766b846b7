package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotReplayable is returned when an API envelope reaches the decoder.
var ErrNotReplayable = errors.New("event type is not replayable")

// DecodeError marks a stored payload that cannot be turned into a ReplayEvent.
type DecodeError struct {
	EventID string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding payload of event %s: %v", e.EventID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ReplayEvent is the decoded form of an EVENT record handed to a dispatcher.
type ReplayEvent struct {
	OccurredAt    time.Time
	Fields        map[string]json.RawMessage
	Payload       json.RawMessage
	EventID       string
	OperationType OperationType
	SubjectCode   string
	RecordID      int64
	SubjectID     int64
	ReplayCount   int
}

// DecodeEvent parses the opaque payload of a stored record. Only EVENT rows
// decode; the payload must be a JSON object.
func DecodeEvent(record EventRecord) (ReplayEvent, error) {
	switch record.EventType {
	case EventTypeEvent:
	case EventTypeAPI:
		return ReplayEvent{}, &DecodeError{EventID: record.EventID, Err: ErrNotReplayable}
	default:
		return ReplayEvent{}, &DecodeError{EventID: record.EventID, Err: fmt.Errorf("unknown event type %q", record.EventType)}
	}

	trimmed := bytes.TrimSpace(record.Payload)
	if len(trimmed) == 0 {
		return ReplayEvent{}, &DecodeError{EventID: record.EventID, Err: errors.New("empty payload")}
	}
	if trimmed[0] != '{' {
		return ReplayEvent{}, &DecodeError{EventID: record.EventID, Err: errors.New("payload is not a JSON object")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return ReplayEvent{}, &DecodeError{EventID: record.EventID, Err: err}
	}

	return ReplayEvent{
		OccurredAt:    record.EventTimestamp,
		Fields:        fields,
		Payload:       json.RawMessage(trimmed),
		EventID:       record.EventID,
		OperationType: record.OperationType,
		SubjectCode:   record.SubjectCode,
		RecordID:      record.ID,
		SubjectID:     record.SubjectID,
		ReplayCount:   record.ReplayCount,
	}, nil
}
