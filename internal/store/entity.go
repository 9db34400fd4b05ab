package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"mnemos.app/archive/internal/model"
)

type entityStore struct {
	db DBTX
}

func newEntityStore(db DBTX) EntityStore {
	return &entityStore{db: db}
}

func (s *entityStore) GetByName(ctx context.Context, name string) (*model.ThinkingEntity, error) {
	row := s.db.QueryRow(ctx,
		`SELECT name, is_human, created_at FROM thinking_entities WHERE name = $1`, name)

	var e model.ThinkingEntity
	if err := row.Scan(&e.Name, &e.IsHuman, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *entityStore) Ensure(ctx context.Context, name string, isHuman bool) (*model.ThinkingEntity, error) {
	// ON CONFLICT DO NOTHING keeps existing entities immutable; the
	// follow-up select returns whichever row won.
	_, err := s.db.Exec(ctx,
		`INSERT INTO thinking_entities (name, is_human) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`, name, isHuman)
	if err != nil {
		return nil, err
	}
	return s.GetByName(ctx, name)
}
