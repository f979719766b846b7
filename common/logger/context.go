package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log record emitted with the enriched context.
// Record and replay paths set them once so downstream statements stay terse.
type LogFields struct {
	EventID       *string // Logical event id shared by API and EVENT rows
	RecordID      *int64  // Stored row id
	FeatureCode   *string // Subject code of the affected feature/release
	OperationType *string // CREATED, UPDATED, ...
	MessageID     *string // Redis stream message ID
	BatchID       *int64  // Replay batch id
	Component     string  // e.g. "eventstore.service.replay"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields stored on ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.EventID != nil {
		result.EventID = next.EventID
	}
	if next.RecordID != nil {
		result.RecordID = next.RecordID
	}
	if next.FeatureCode != nil {
		result.FeatureCode = next.FeatureCode
	}
	if next.OperationType != nil {
		result.OperationType = next.OperationType
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.BatchID != nil {
		result.BatchID = next.BatchID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{EventID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
