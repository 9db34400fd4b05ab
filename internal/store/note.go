package store

import (
	"context"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/internal/model"
)

type noteStore struct {
	db DBTX
}

func newNoteStore(db DBTX) NoteStore {
	return &noteStore{db: db}
}

func (s *noteStore) Create(ctx context.Context, note *model.Note) error {
	if note.ID == 0 {
		note.ID = id.New()
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO notes (id, target_kind, target_id, author, content, anchor)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		note.ID, note.TargetKind, note.TargetID, note.Author, note.Content, note.Anchor)
	return row.Scan(&note.CreatedAt)
}

func (s *noteStore) ListByTarget(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, target_kind, target_id, author, content, anchor, created_at
		 FROM notes WHERE target_kind = $1 AND target_id = $2
		 ORDER BY created_at, id`, kind, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.TargetKind, &n.TargetID, &n.Author,
			&n.Content, &n.Anchor, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
