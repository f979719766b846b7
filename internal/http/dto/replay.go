package dto

import (
	"time"

	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/service"
)

type CountEventsRequest struct {
	Start time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
}

type CountEventsResponse struct {
	Count int64 `json:"count"`
}

type TimeRangeReplayRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type OperationReplayRequest struct {
	OperationType string    `json:"operationType" binding:"required"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

type FeaturesReplayRequest struct {
	FeatureCodes []string  `json:"featureCodes"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

type EventDetailResponse struct {
	EventID        string    `json:"eventId"`
	FeatureCode    string    `json:"featureCode"`
	OperationType  string    `json:"operationType"`
	Status         string    `json:"status"`
	EventTimestamp time.Time `json:"eventTimestamp"`
	Error          string    `json:"error,omitempty"`
}

type ReplayResponse struct {
	BatchID        int64                 `json:"batchId,string"`
	OperationType  string                `json:"operationType,omitempty"`
	TotalEvents    int                   `json:"totalEvents"`
	ReplayedEvents int                   `json:"replayedEvents"`
	FailedEvents   int                   `json:"failedEvents"`
	EventDetails   []EventDetailResponse `json:"eventDetails"`
}

func NewReplayResponse(result *service.ReplayResult) ReplayResponse {
	details := make([]EventDetailResponse, 0, len(result.EventDetails))
	for _, d := range result.EventDetails {
		details = append(details, EventDetailResponse{
			EventID:        d.EventID,
			FeatureCode:    d.FeatureCode,
			OperationType:  string(d.OperationType),
			Status:         string(d.Status),
			EventTimestamp: d.EventTimestamp.UTC(),
			Error:          d.Error,
		})
	}

	return ReplayResponse{
		BatchID:        result.BatchID,
		TotalEvents:    result.TotalEvents,
		ReplayedEvents: result.ReplayedEvents,
		FailedEvents:   result.FailedEvents,
		EventDetails:   details,
	}
}

type EventRecordResponse struct {
	ID             int64      `json:"id,string"`
	EventID        string     `json:"eventId"`
	EventType      string     `json:"eventType"`
	OperationType  string     `json:"operationType"`
	SubjectID      int64      `json:"subjectId"`
	SubjectCode    string     `json:"subjectCode"`
	EventTimestamp time.Time  `json:"eventTimestamp"`
	ProcessedAt    time.Time  `json:"processedAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	ReplayCount    int        `json:"replayCount"`
	LastReplayedAt *time.Time `json:"lastReplayedAt,omitempty"`
	ReplayStatus   *string    `json:"replayStatus,omitempty"`
}

type FeatureRecordsResponse struct {
	FeatureCode string                `json:"featureCode"`
	EventType   string                `json:"eventType"`
	Records     []EventRecordResponse `json:"records"`
}

func NewFeatureRecordsResponse(code string, eventType model.EventType, records []model.EventRecord) FeatureRecordsResponse {
	out := make([]EventRecordResponse, 0, len(records))
	for _, r := range records {
		resp := EventRecordResponse{
			ID:             r.ID,
			EventID:        r.EventID,
			EventType:      string(r.EventType),
			OperationType:  string(r.OperationType),
			SubjectID:      r.SubjectID,
			SubjectCode:    r.SubjectCode,
			EventTimestamp: r.EventTimestamp.UTC(),
			ProcessedAt:    r.ProcessedAt.UTC(),
			ExpiresAt:      r.ExpiresAt,
			ReplayCount:    r.ReplayCount,
			LastReplayedAt: r.LastReplayedAt,
		}
		if r.ReplayStatus != nil {
			status := string(*r.ReplayStatus)
			resp.ReplayStatus = &status
		}
		out = append(out, resp)
	}

	return FeatureRecordsResponse{
		FeatureCode: code,
		EventType:   string(eventType),
		Records:     out,
	}
}
