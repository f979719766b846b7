package service

import (
	"context"

	"basegraph.app/eventstore/core/db"
	"basegraph.app/eventstore/core/db/sqlc"
	"basegraph.app/eventstore/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	EventRecords() store.EventRecordStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		return fn(store.NewStores(q))
	})
}

type storeTxRunner struct {
	stores StoreProvider
}

// NewStoreTxRunner hands fn the given stores directly, with no transaction.
// Used with the in-memory store, whose appends are individually atomic.
func NewStoreTxRunner(stores StoreProvider) TxRunner {
	return &storeTxRunner{stores: stores}
}

func (r *storeTxRunner) WithTx(_ context.Context, fn func(stores StoreProvider) error) error {
	return fn(r.stores)
}
