package handler_test

import (
	"context"
	"time"

	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/service"
)

type mockReplayService struct {
	countFn          func(ctx context.Context, start, end time.Time) (int64, error)
	timeRangeFn      func(ctx context.Context, start, end time.Time) (*service.ReplayResult, error)
	featureFn        func(ctx context.Context, featureCode string) (*service.ReplayResult, error)
	operationFn      func(ctx context.Context, op model.OperationType, start, end time.Time) (*service.ReplayResult, error)
	featuresFn       func(ctx context.Context, featureCodes []string, start, end time.Time) (*service.ReplayResult, error)
	featureRecordsFn func(ctx context.Context, featureCode string, eventType model.EventType) ([]model.EventRecord, error)
}

func (m *mockReplayService) CountEventsInRange(ctx context.Context, start, end time.Time) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, start, end)
	}
	return 0, nil
}

func (m *mockReplayService) ReplayByTimeRange(ctx context.Context, start, end time.Time) (*service.ReplayResult, error) {
	if m.timeRangeFn != nil {
		return m.timeRangeFn(ctx, start, end)
	}
	return &service.ReplayResult{}, nil
}

func (m *mockReplayService) ReplayByFeature(ctx context.Context, featureCode string) (*service.ReplayResult, error) {
	if m.featureFn != nil {
		return m.featureFn(ctx, featureCode)
	}
	return &service.ReplayResult{}, nil
}

func (m *mockReplayService) ReplayByOperation(ctx context.Context, op model.OperationType, start, end time.Time) (*service.ReplayResult, error) {
	if m.operationFn != nil {
		return m.operationFn(ctx, op, start, end)
	}
	return &service.ReplayResult{}, nil
}

func (m *mockReplayService) ReplayByFeatures(ctx context.Context, featureCodes []string, start, end time.Time) (*service.ReplayResult, error) {
	if m.featuresFn != nil {
		return m.featuresFn(ctx, featureCodes, start, end)
	}
	return &service.ReplayResult{}, nil
}

func (m *mockReplayService) FeatureRecords(ctx context.Context, featureCode string, eventType model.EventType) ([]model.EventRecord, error) {
	if m.featureRecordsFn != nil {
		return m.featureRecordsFn(ctx, featureCode, eventType)
	}
	return nil, nil
}

type mockEventPublisher struct {
	publishFn func(ctx context.Context, params service.RecordParams) bool
	published []service.RecordParams
}

func (m *mockEventPublisher) Publish(ctx context.Context, params service.RecordParams) bool {
	m.published = append(m.published, params)
	if m.publishFn != nil {
		return m.publishFn(ctx, params)
	}
	return true
}
