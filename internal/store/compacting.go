package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/internal/model"
)

type compactingActionStore struct {
	db DBTX
}

func newCompactingActionStore(db DBTX) CompactingActionStore {
	return &compactingActionStore{db: db}
}

const compactingColumns = `id, ended_heap_id, started_heap_id, boundary_message_id,
	ending_message_id, summary, trigger, pre_compact_tokens, created_at`

func (s *compactingActionStore) Create(ctx context.Context, action *model.CompactingAction) error {
	if action.ID == 0 {
		action.ID = id.New()
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO compacting_actions (id, ended_heap_id, started_heap_id,
			boundary_message_id, ending_message_id, summary, trigger, pre_compact_tokens)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		action.ID, action.EndedHeapID, action.StartedHeapID, action.BoundaryMessageID,
		action.EndingMessageID, action.Summary, action.Trigger, action.PreCompactTokens)
	return row.Scan(&action.CreatedAt)
}

func (s *compactingActionStore) Latest(ctx context.Context) (*model.CompactingAction, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+compactingColumns+` FROM compacting_actions
		 ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanCompactingAction(row)
}

func (s *compactingActionStore) GetByStartedHeap(ctx context.Context, heapID int64) (*model.CompactingAction, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+compactingColumns+` FROM compacting_actions
		 WHERE started_heap_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, heapID)
	return scanCompactingAction(row)
}

func scanCompactingAction(row pgx.Row) (*model.CompactingAction, error) {
	var a model.CompactingAction
	err := row.Scan(&a.ID, &a.EndedHeapID, &a.StartedHeapID, &a.BoundaryMessageID,
		&a.EndingMessageID, &a.Summary, &a.Trigger, &a.PreCompactTokens, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
