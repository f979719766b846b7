package store

import (
	"basegraph.app/eventstore/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) EventRecords() EventRecordStore {
	return newEventRecordStore(s.queries)
}
