package store

import (
	"context"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/internal/model"
)

type unparsedStore struct {
	db DBTX
}

func newUnparsedStore(db DBTX) UnparsedStore {
	return &unparsedStore{db: db}
}

func (s *unparsedStore) Create(ctx context.Context, entry *model.UnparsedEntry) error {
	if entry.ID == 0 {
		entry.ID = id.New()
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO unparsed_entries (id, source_id, position, raw, parse_error)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		entry.ID, entry.SourceID, entry.Position, entry.Raw, entry.ParseError)
	return row.Scan(&entry.CreatedAt)
}

func (s *unparsedStore) ListBySource(ctx context.Context, sourceID string) ([]model.UnparsedEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, position, raw, parse_error, created_at
		 FROM unparsed_entries WHERE source_id = $1 ORDER BY position, id`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.UnparsedEntry
	for rows.Next() {
		var e model.UnparsedEntry
		if err := rows.Scan(&e.ID, &e.SourceID, &e.Position, &e.Raw,
			&e.ParseError, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
