package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/internal/model"
)

type heapStore struct {
	db DBTX
}

func newHeapStore(db DBTX) HeapStore {
	return &heapStore{db: db}
}

func (s *heapStore) GetByID(ctx context.Context, heapID int64) (*model.ContextHeap, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, era_id, kind, source_id, parent_heap_id, created_at
		 FROM context_heaps WHERE id = $1`, heapID)

	var h model.ContextHeap
	if err := row.Scan(&h.ID, &h.EraID, &h.Kind, &h.SourceID, &h.ParentHeapID, &h.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (s *heapStore) Create(ctx context.Context, heap *model.ContextHeap) error {
	if heap.ID == 0 {
		heap.ID = id.New()
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO context_heaps (id, era_id, kind, source_id, parent_heap_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		heap.ID, heap.EraID, heap.Kind, heap.SourceID, heap.ParentHeapID)
	return row.Scan(&heap.CreatedAt)
}

func (s *heapStore) ListByEra(ctx context.Context, eraID int64) ([]model.ContextHeap, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, era_id, kind, source_id, parent_heap_id, created_at
		 FROM context_heaps WHERE era_id = $1 ORDER BY created_at, id`, eraID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var heaps []model.ContextHeap
	for rows.Next() {
		var h model.ContextHeap
		if err := rows.Scan(&h.ID, &h.EraID, &h.Kind, &h.SourceID, &h.ParentHeapID, &h.CreatedAt); err != nil {
			return nil, err
		}
		heaps = append(heaps, h)
	}
	return heaps, rows.Err()
}

func (s *heapStore) AnchorBounds(ctx context.Context, heapID int64) (model.AnchorBounds, error) {
	row := s.db.QueryRow(ctx,
		`SELECT MIN(anchor), MAX(anchor) FROM messages
		 WHERE heap_id = $1 AND anchor IS NOT NULL`, heapID)

	var bounds model.AnchorBounds
	if err := row.Scan(&bounds.Earliest, &bounds.Latest); err != nil {
		return model.AnchorBounds{}, err
	}
	return bounds, nil
}
