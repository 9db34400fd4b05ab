package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the querying surface shared by pgxpool.Pool and pgx.Tx, so the
// same stores serve both transactional and non-transactional callers.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Stores struct {
	db DBTX
}

func NewStores(db DBTX) *Stores {
	return &Stores{db: db}
}

func (s *Stores) Entities() EntityStore {
	return newEntityStore(s.db)
}

func (s *Stores) Eras() EraStore {
	return newEraStore(s.db)
}

func (s *Stores) Heaps() HeapStore {
	return newHeapStore(s.db)
}

func (s *Stores) Messages() MessageStore {
	return newMessageStore(s.db)
}

func (s *Stores) CompactingActions() CompactingActionStore {
	return newCompactingActionStore(s.db)
}

func (s *Stores) Notes() NoteStore {
	return newNoteStore(s.db)
}

func (s *Stores) Cursors() CursorStore {
	return newCursorStore(s.db)
}

func (s *Stores) Unparsed() UnparsedStore {
	return newUnparsedStore(s.db)
}
