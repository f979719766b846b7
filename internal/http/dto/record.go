package dto

import (
	"encoding/json"
	"time"
)

type RecordEventRequest struct {
	EventID       string          `json:"eventId"`
	OperationType string          `json:"operationType" binding:"required,oneof=CREATED UPDATED DELETED STATUS_CHANGED"`
	SubjectID     int64           `json:"subjectId"`
	SubjectCode   string          `json:"subjectCode" binding:"required"`
	Payload       json.RawMessage `json:"payload" binding:"required"`
	Result        json.RawMessage `json:"result,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

type RecordEventResponse struct {
	EventID  string `json:"eventId"`
	Enqueued bool   `json:"enqueued"`
}
