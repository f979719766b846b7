package service

import (
	"log/slog"
	"time"

	"basegraph.app/eventstore/common/clock"
	"basegraph.app/eventstore/internal/queue"
	"basegraph.app/eventstore/internal/store"
)

type Services struct {
	records    store.EventRecordStore
	txRunner   TxRunner
	producer   queue.Producer
	dispatcher Dispatcher
	clock      clock.Clock
	replayCfg  ReplayConfig
	retention  time.Duration
}

func NewServices(records store.EventRecordStore, txRunner TxRunner, producer queue.Producer, dispatcher Dispatcher, clk clock.Clock, replayCfg ReplayConfig, retention time.Duration) *Services {
	return &Services{
		records:    records,
		txRunner:   txRunner,
		producer:   producer,
		dispatcher: dispatcher,
		clock:      clk,
		replayCfg:  replayCfg,
		retention:  retention,
	}
}

func (s *Services) Replay() ReplayService {
	return NewReplayService(s.records, s.dispatcher, s.clock, s.replayCfg, slog.Default())
}

func (s *Services) Recorder() EventRecorder {
	return NewEventRecorder(s.txRunner, s.clock, s.retention, slog.Default())
}

func (s *Services) Publisher() EventPublisher {
	return NewEventPublisher(s.producer, slog.Default())
}
