package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/eventstore/internal/model"
)

// RecordMessage asks the recorder worker to persist one committed domain write.
type RecordMessage struct {
	OccurredAt    time.Time
	Payload       json.RawMessage
	ResultData    json.RawMessage
	EventID       string
	OperationType model.OperationType
	SubjectCode   string
	TraceID       string
	SubjectID     int64
	Attempt       int
}

// Message is a RecordMessage as read back from the stream.
type Message struct {
	Record  RecordMessage
	ID      string
	Attempt int
	Raw     redis.XMessage
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	eventID, err := parseString(msg.Values, "event_id")
	if err != nil {
		return Message{}, err
	}
	if eventID == "" {
		return Message{}, fmt.Errorf("empty event_id")
	}

	op, err := parseString(msg.Values, "operation_type")
	if err != nil {
		return Message{}, err
	}
	operationType := model.OperationType(op)
	if !operationType.Valid() {
		return Message{}, fmt.Errorf("unknown operation_type %q", op)
	}

	subjectID, err := parseInt64(msg.Values, "subject_id")
	if err != nil {
		return Message{}, err
	}
	subjectCode, err := parseString(msg.Values, "subject_code")
	if err != nil {
		return Message{}, err
	}

	occurredRaw, err := parseString(msg.Values, "occurred_at")
	if err != nil {
		return Message{}, err
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, occurredRaw)
	if err != nil {
		return Message{}, fmt.Errorf("parsing occurred_at: %w", err)
	}

	payload, err := parseString(msg.Values, "payload")
	if err != nil {
		return Message{}, err
	}
	result := parseOptionalString(msg.Values, "result")
	traceID := parseOptionalString(msg.Values, "trace_id")

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt <= 0 {
		attempt = 1
	}

	record := RecordMessage{
		OccurredAt:    occurredAt.UTC(),
		Payload:       json.RawMessage(payload),
		EventID:       eventID,
		OperationType: operationType,
		SubjectCode:   subjectCode,
		TraceID:       traceID,
		SubjectID:     subjectID,
		Attempt:       attempt,
	}
	if result != "" {
		record.ResultData = json.RawMessage(result)
	}

	return Message{
		Record:  record,
		ID:      msg.ID,
		Attempt: attempt,
		Raw:     msg,
	}, nil
}

func messageValues(msg RecordMessage, attempt int) map[string]any {
	if attempt <= 0 {
		attempt = 1
	}

	values := map[string]any{
		"event_id":       msg.EventID,
		"operation_type": string(msg.OperationType),
		"subject_id":     msg.SubjectID,
		"subject_code":   msg.SubjectCode,
		"occurred_at":    msg.OccurredAt.UTC().Format(time.RFC3339Nano),
		"payload":        string(msg.Payload),
		"attempt":        attempt,
	}
	if len(msg.ResultData) > 0 {
		values["result"] = string(msg.ResultData)
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	return values
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}
