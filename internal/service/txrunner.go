package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"mnemos.app/archive/core/db"
	"mnemos.app/archive/internal/store"
)

// StoreProvider exposes the stores available to a transactional operation.
type StoreProvider interface {
	Entities() store.EntityStore
	Eras() store.EraStore
	Heaps() store.HeapStore
	Messages() store.MessageStore
	CompactingActions() store.CompactingActionStore
	Notes() store.NoteStore
	Cursors() store.CursorStore
	Unparsed() store.UnparsedStore
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
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		stores := store.NewStores(tx)
		return fn(stores)
	})
}
