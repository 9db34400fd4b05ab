package service_test

import (
	"context"
	"time"

	"mnemos.app/archive/internal/model"
)

type mockEraStore struct {
	getByIDFn      func(ctx context.Context, id int64) (*model.Era, error)
	getByNameFn    func(ctx context.Context, name string) (*model.Era, error)
	ensureFn       func(ctx context.Context, name string) (*model.Era, error)
	listFn         func(ctx context.Context) ([]model.Era, error)
	anchorBoundsFn func(ctx context.Context, eraID int64) (model.AnchorBounds, error)
}

func (m *mockEraStore) GetByID(ctx context.Context, id int64) (*model.Era, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEraStore) GetByName(ctx context.Context, name string) (*model.Era, error) {
	if m.getByNameFn != nil {
		return m.getByNameFn(ctx, name)
	}
	return nil, nil
}

func (m *mockEraStore) Create(_ context.Context, _ *model.Era) error { return nil }

func (m *mockEraStore) Ensure(ctx context.Context, name string) (*model.Era, error) {
	if m.ensureFn != nil {
		return m.ensureFn(ctx, name)
	}
	return nil, nil
}

func (m *mockEraStore) List(ctx context.Context) ([]model.Era, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockEraStore) AnchorBounds(ctx context.Context, eraID int64) (model.AnchorBounds, error) {
	if m.anchorBoundsFn != nil {
		return m.anchorBoundsFn(ctx, eraID)
	}
	return model.AnchorBounds{}, nil
}

type mockHeapStore struct {
	getByIDFn      func(ctx context.Context, id int64) (*model.ContextHeap, error)
	listByEraFn    func(ctx context.Context, eraID int64) ([]model.ContextHeap, error)
	anchorBoundsFn func(ctx context.Context, heapID int64) (model.AnchorBounds, error)
}

func (m *mockHeapStore) GetByID(ctx context.Context, id int64) (*model.ContextHeap, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockHeapStore) Create(_ context.Context, _ *model.ContextHeap) error { return nil }

func (m *mockHeapStore) ListByEra(ctx context.Context, eraID int64) ([]model.ContextHeap, error) {
	if m.listByEraFn != nil {
		return m.listByEraFn(ctx, eraID)
	}
	return nil, nil
}

func (m *mockHeapStore) AnchorBounds(ctx context.Context, heapID int64) (model.AnchorBounds, error) {
	if m.anchorBoundsFn != nil {
		return m.anchorBoundsFn(ctx, heapID)
	}
	return model.AnchorBounds{}, nil
}

type mockMessageStore struct {
	getByIDFn    func(ctx context.Context, id int64) (*model.Message, error)
	listByHeapFn func(ctx context.Context, heapID int64) ([]model.Message, error)
	listByEraFn  func(ctx context.Context, eraID int64) ([]model.Message, error)
	listBeforeFn func(ctx context.Context, ts time.Time, id int64, limit int) ([]model.Message, error)
	listSinceFn  func(ctx context.Context, ts time.Time, id int64, limit int) ([]model.Message, error)
	listRecentFn func(ctx context.Context, limit int) ([]model.Message, error)
	searchFn     func(ctx context.Context, query string, limit int) ([]model.Message, error)
}

func (m *mockMessageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageStore) GetByFingerprint(_ context.Context, _ string) (*model.Message, error) {
	return nil, nil
}

func (m *mockMessageStore) GetByRef(_ context.Context, _ string) (*model.Message, error) {
	return nil, nil
}

func (m *mockMessageStore) Create(_ context.Context, _ *model.Message) error { return nil }

func (m *mockMessageStore) MaxSeq(_ context.Context, _ int64) (int, error) { return 0, nil }

func (m *mockMessageStore) LastInHeap(_ context.Context, _ int64) (*model.Message, error) {
	return nil, nil
}

func (m *mockMessageStore) ListByHeap(ctx context.Context, heapID int64) ([]model.Message, error) {
	if m.listByHeapFn != nil {
		return m.listByHeapFn(ctx, heapID)
	}
	return nil, nil
}

func (m *mockMessageStore) ListByEra(ctx context.Context, eraID int64) ([]model.Message, error) {
	if m.listByEraFn != nil {
		return m.listByEraFn(ctx, eraID)
	}
	return nil, nil
}

func (m *mockMessageStore) ListBefore(ctx context.Context, ts time.Time, id int64, limit int) ([]model.Message, error) {
	if m.listBeforeFn != nil {
		return m.listBeforeFn(ctx, ts, id, limit)
	}
	return nil, nil
}

func (m *mockMessageStore) ListSince(ctx context.Context, ts time.Time, id int64, limit int) ([]model.Message, error) {
	if m.listSinceFn != nil {
		return m.listSinceFn(ctx, ts, id, limit)
	}
	return nil, nil
}

func (m *mockMessageStore) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockMessageStore) Search(ctx context.Context, query string, limit int) ([]model.Message, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

type mockCompactingActionStore struct {
	latestFn           func(ctx context.Context) (*model.CompactingAction, error)
	getByStartedHeapFn func(ctx context.Context, heapID int64) (*model.CompactingAction, error)
}

func (m *mockCompactingActionStore) Create(_ context.Context, _ *model.CompactingAction) error {
	return nil
}

func (m *mockCompactingActionStore) Latest(ctx context.Context) (*model.CompactingAction, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return nil, nil
}

func (m *mockCompactingActionStore) GetByStartedHeap(ctx context.Context, heapID int64) (*model.CompactingAction, error) {
	if m.getByStartedHeapFn != nil {
		return m.getByStartedHeapFn(ctx, heapID)
	}
	return nil, nil
}

type mockNoteStore struct {
	createFn       func(ctx context.Context, note *model.Note) error
	listByTargetFn func(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error)
	createCalls    int
}

func (m *mockNoteStore) Create(ctx context.Context, note *model.Note) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, note)
	}
	return nil
}

func (m *mockNoteStore) ListByTarget(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error) {
	if m.listByTargetFn != nil {
		return m.listByTargetFn(ctx, kind, targetID)
	}
	return nil, nil
}

type mockEntityStore struct {
	ensureFn    func(ctx context.Context, name string, isHuman bool) (*model.ThinkingEntity, error)
	ensureCalls int
}

func (m *mockEntityStore) GetByName(_ context.Context, _ string) (*model.ThinkingEntity, error) {
	return nil, nil
}

func (m *mockEntityStore) Ensure(ctx context.Context, name string, isHuman bool) (*model.ThinkingEntity, error) {
	m.ensureCalls++
	if m.ensureFn != nil {
		return m.ensureFn(ctx, name, isHuman)
	}
	return &model.ThinkingEntity{Name: name, IsHuman: isHuman}, nil
}

type mockSearcher struct {
	searchFn func(ctx context.Context, query string, limit int) ([]int64, error)
}

func (m *mockSearcher) IndexMessage(_ context.Context, _ *model.Message) error { return nil }

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}
