package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/internal/model"
)

type eraStore struct {
	db DBTX
}

func newEraStore(db DBTX) EraStore {
	return &eraStore{db: db}
}

func (s *eraStore) GetByID(ctx context.Context, eraID int64) (*model.Era, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM eras WHERE id = $1`, eraID))
}

func (s *eraStore) GetByName(ctx context.Context, name string) (*model.Era, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM eras WHERE name = $1`, name))
}

func (s *eraStore) Create(ctx context.Context, era *model.Era) error {
	if era.ID == 0 {
		era.ID = id.New()
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO eras (id, name) VALUES ($1, $2) RETURNING created_at`,
		era.ID, era.Name)
	return row.Scan(&era.CreatedAt)
}

func (s *eraStore) Ensure(ctx context.Context, name string) (*model.Era, error) {
	era, err := s.GetByName(ctx, name)
	if err == nil {
		return era, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	era = &model.Era{Name: name}
	if err := s.Create(ctx, era); err != nil {
		return nil, err
	}
	return era, nil
}

func (s *eraStore) List(ctx context.Context) ([]model.Era, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, created_at FROM eras ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eras []model.Era
	for rows.Next() {
		var e model.Era
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, err
		}
		eras = append(eras, e)
	}
	return eras, rows.Err()
}

func (s *eraStore) AnchorBounds(ctx context.Context, eraID int64) (model.AnchorBounds, error) {
	row := s.db.QueryRow(ctx,
		`SELECT MIN(m.anchor), MAX(m.anchor)
		 FROM messages m
		 JOIN context_heaps h ON h.id = m.heap_id
		 WHERE h.era_id = $1 AND m.anchor IS NOT NULL`, eraID)

	var bounds model.AnchorBounds
	if err := row.Scan(&bounds.Earliest, &bounds.Latest); err != nil {
		return model.AnchorBounds{}, err
	}
	return bounds, nil
}

func (s *eraStore) scanOne(row pgx.Row) (*model.Era, error) {
	var e model.Era
	if err := row.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
