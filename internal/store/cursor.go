package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"mnemos.app/archive/internal/model"
)

type cursorStore struct {
	db DBTX
}

func newCursorStore(db DBTX) CursorStore {
	return &cursorStore{db: db}
}

func (s *cursorStore) Get(ctx context.Context, sourceID string) (*model.IngestionCursor, error) {
	row := s.db.QueryRow(ctx,
		`SELECT source_id, position, open_heap_id, updated_at
		 FROM ingestion_cursors WHERE source_id = $1`, sourceID)

	var c model.IngestionCursor
	if err := row.Scan(&c.SourceID, &c.Position, &c.OpenHeapID, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *cursorStore) Upsert(ctx context.Context, cursor *model.IngestionCursor) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO ingestion_cursors (source_id, position, open_heap_id, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (source_id) DO UPDATE
		 SET position = EXCLUDED.position,
		     open_heap_id = EXCLUDED.open_heap_id,
		     updated_at = now()
		 RETURNING updated_at`,
		cursor.SourceID, cursor.Position, cursor.OpenHeapID)
	return row.Scan(&cursor.UpdatedAt)
}
