package handler_test

import (
	"context"

	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/service"
)

type mockRetrievalService struct {
	latestContinuationFn func(ctx context.Context) (*service.Continuation, error)
	messagesBeforeFn     func(ctx context.Context, ref string, limit int) ([]model.Message, error)
	messagesSinceFn      func(ctx context.Context, msgID int64, limit int) ([]model.Message, error)
	eraSummaryFn         func(ctx context.Context, selector string) (*service.EraSummary, error)
	heapDetailFn         func(ctx context.Context, heapID int64) (*service.HeapDetail, error)
	searchMessagesFn     func(ctx context.Context, query string, limit int) ([]model.Message, error)
	recentWorkFn         func(ctx context.Context, limit int) ([]model.Message, error)
	listErasFn           func(ctx context.Context) ([]model.Era, error)
}

func (m *mockRetrievalService) LatestContinuation(ctx context.Context) (*service.Continuation, error) {
	if m.latestContinuationFn != nil {
		return m.latestContinuationFn(ctx)
	}
	return nil, nil
}

func (m *mockRetrievalService) MessagesBefore(ctx context.Context, ref string, limit int) ([]model.Message, error) {
	if m.messagesBeforeFn != nil {
		return m.messagesBeforeFn(ctx, ref, limit)
	}
	return nil, nil
}

func (m *mockRetrievalService) MessagesSince(ctx context.Context, msgID int64, limit int) ([]model.Message, error) {
	if m.messagesSinceFn != nil {
		return m.messagesSinceFn(ctx, msgID, limit)
	}
	return nil, nil
}

func (m *mockRetrievalService) EraSummary(ctx context.Context, selector string) (*service.EraSummary, error) {
	if m.eraSummaryFn != nil {
		return m.eraSummaryFn(ctx, selector)
	}
	return nil, nil
}

func (m *mockRetrievalService) HeapDetail(ctx context.Context, heapID int64) (*service.HeapDetail, error) {
	if m.heapDetailFn != nil {
		return m.heapDetailFn(ctx, heapID)
	}
	return nil, nil
}

func (m *mockRetrievalService) SearchMessages(ctx context.Context, query string, limit int) ([]model.Message, error) {
	if m.searchMessagesFn != nil {
		return m.searchMessagesFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockRetrievalService) RecentWork(ctx context.Context, limit int) ([]model.Message, error) {
	if m.recentWorkFn != nil {
		return m.recentWorkFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRetrievalService) ListEras(ctx context.Context) ([]model.Era, error) {
	if m.listErasFn != nil {
		return m.listErasFn(ctx)
	}
	return nil, nil
}

type mockNoteService struct {
	createFn       func(ctx context.Context, note *model.Note) error
	listByTargetFn func(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error)
}

func (m *mockNoteService) Create(ctx context.Context, note *model.Note) error {
	if m.createFn != nil {
		return m.createFn(ctx, note)
	}
	return nil
}

func (m *mockNoteService) ListByTarget(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error) {
	if m.listByTargetFn != nil {
		return m.listByTargetFn(ctx, kind, targetID)
	}
	return nil, nil
}
