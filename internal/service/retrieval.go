package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/search"
	"mnemos.app/archive/internal/store"
)

// ErrInvalidRef is returned when a message reference is neither a message ID
// nor an RFC 3339 timestamp.
var ErrInvalidRef = errors.New("invalid message reference")

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Continuation pairs the most recent compaction record with the message that
// triggered it and the heap that picked up after it.
type Continuation struct {
	Action  *model.CompactingAction `json:"action"`
	Message *model.Message          `json:"message,omitempty"`
	Heap    *model.ContextHeap      `json:"heap"`
	Era     *model.Era              `json:"era"`
}

// EraSummary is the full view of an era: its heaps, every message under
// them in heap-then-sequence order, temporal anchor bounds and any
// annotations attached to the era.
type EraSummary struct {
	Era      *model.Era          `json:"era"`
	Heaps    []model.ContextHeap `json:"heaps"`
	Messages []model.Message     `json:"messages"`
	Bounds   model.AnchorBounds  `json:"bounds"`
	Notes    []model.Note        `json:"notes,omitempty"`
}

// HeapDetail is the full view of a single context heap.
type HeapDetail struct {
	Heap       *model.ContextHeap      `json:"heap"`
	Messages   []model.Message         `json:"messages"`
	Bounds     model.AnchorBounds      `json:"bounds"`
	Compaction *model.CompactingAction `json:"compaction,omitempty"`
	Notes      []model.Note            `json:"notes,omitempty"`
}

type RetrievalService interface {
	// LatestContinuation returns the most recent compaction record, the
	// natural re-entry point after losing context.
	LatestContinuation(ctx context.Context) (*Continuation, error)
	// MessagesBefore pages backwards from a reference point, newest first.
	// ref is a message ID or an RFC 3339 timestamp.
	MessagesBefore(ctx context.Context, ref string, limit int) ([]model.Message, error)
	// MessagesSince returns messages after the given message, oldest first.
	MessagesSince(ctx context.Context, msgID int64, limit int) ([]model.Message, error)
	// EraSummary resolves the selector as an era ID first, then as a name.
	EraSummary(ctx context.Context, selector string) (*EraSummary, error)
	HeapDetail(ctx context.Context, heapID int64) (*HeapDetail, error)
	SearchMessages(ctx context.Context, query string, limit int) ([]model.Message, error)
	RecentWork(ctx context.Context, limit int) ([]model.Message, error)
	ListEras(ctx context.Context) ([]model.Era, error)
}

type retrievalService struct {
	eras     store.EraStore
	heaps    store.HeapStore
	messages store.MessageStore
	actions  store.CompactingActionStore
	notes    store.NoteStore
	searcher search.Searcher // nil means Postgres full-text search
}

func NewRetrievalService(
	eras store.EraStore,
	heaps store.HeapStore,
	messages store.MessageStore,
	actions store.CompactingActionStore,
	notes store.NoteStore,
	searcher search.Searcher,
) RetrievalService {
	return &retrievalService{
		eras:     eras,
		heaps:    heaps,
		messages: messages,
		actions:  actions,
		notes:    notes,
		searcher: searcher,
	}
}

func (s *retrievalService) LatestContinuation(ctx context.Context) (*Continuation, error) {
	action, err := s.actions.Latest(ctx)
	if err != nil {
		return nil, err
	}

	heap, err := s.heaps.GetByID(ctx, action.StartedHeapID)
	if err != nil {
		return nil, fmt.Errorf("loading continuation heap %d: %w", action.StartedHeapID, err)
	}

	era, err := s.eras.GetByID(ctx, heap.EraID)
	if err != nil {
		return nil, fmt.Errorf("loading era %d: %w", heap.EraID, err)
	}

	cont := &Continuation{Action: action, Heap: heap, Era: era}
	if action.BoundaryMessageID != nil {
		msg, err := s.messages.GetByID(ctx, *action.BoundaryMessageID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("loading boundary message: %w", err)
		}
		cont.Message = msg
	}
	return cont, nil
}

func (s *retrievalService) MessagesBefore(ctx context.Context, ref string, limit int) ([]model.Message, error) {
	ts, msgID, err := s.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.messages.ListBefore(ctx, ts, msgID, clampLimit(limit))
}

func (s *retrievalService) MessagesSince(ctx context.Context, msgID int64, limit int) ([]model.Message, error) {
	msg, err := s.messages.GetByID(ctx, msgID)
	if err != nil {
		return nil, err
	}
	return s.messages.ListSince(ctx, msg.Timestamp, msg.ID, clampLimit(limit))
}

func (s *retrievalService) EraSummary(ctx context.Context, selector string) (*EraSummary, error) {
	era, err := s.resolveEra(ctx, selector)
	if err != nil {
		return nil, err
	}

	heaps, err := s.heaps.ListByEra(ctx, era.ID)
	if err != nil {
		return nil, fmt.Errorf("listing heaps: %w", err)
	}

	msgs, err := s.messages.ListByEra(ctx, era.ID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	bounds, err := s.eras.AnchorBounds(ctx, era.ID)
	if err != nil {
		return nil, fmt.Errorf("computing anchor bounds: %w", err)
	}

	notes, err := s.notes.ListByTarget(ctx, model.NoteOnEra, era.ID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	return &EraSummary{Era: era, Heaps: heaps, Messages: msgs, Bounds: bounds, Notes: notes}, nil
}

func (s *retrievalService) HeapDetail(ctx context.Context, heapID int64) (*HeapDetail, error) {
	heap, err := s.heaps.GetByID(ctx, heapID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByHeap(ctx, heapID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	bounds, err := s.heaps.AnchorBounds(ctx, heapID)
	if err != nil {
		return nil, fmt.Errorf("computing anchor bounds: %w", err)
	}

	detail := &HeapDetail{Heap: heap, Messages: msgs, Bounds: bounds}

	if heap.Kind == model.HeapPostCompacting {
		action, err := s.actions.GetByStartedHeap(ctx, heapID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("loading compaction record: %w", err)
		}
		detail.Compaction = action
	}

	notes, err := s.notes.ListByTarget(ctx, model.NoteOnHeap, heapID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	detail.Notes = notes

	return detail, nil
}

func (s *retrievalService) SearchMessages(ctx context.Context, query string, limit int) ([]model.Message, error) {
	// An empty query is an empty result, not an error; Typesense rejects it.
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	limit = clampLimit(limit)

	if s.searcher == nil {
		return s.messages.Search(ctx, query, limit)
	}

	ids, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]model.Message, 0, len(ids))
	for _, msgID := range ids {
		msg, err := s.messages.GetByID(ctx, msgID)
		if errors.Is(err, store.ErrNotFound) {
			// Index entry outlived the row; skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	return msgs, nil
}

func (s *retrievalService) RecentWork(ctx context.Context, limit int) ([]model.Message, error) {
	return s.messages.ListRecent(ctx, clampLimit(limit))
}

func (s *retrievalService) ListEras(ctx context.Context) ([]model.Era, error) {
	return s.eras.List(ctx)
}

// resolveRef turns a message ID or RFC 3339 timestamp into the (ts, id)
// cursor tuple used for keyset pagination.
func (s *retrievalService) resolveRef(ctx context.Context, ref string) (time.Time, int64, error) {
	if msgID, err := strconv.ParseInt(ref, 10, 64); err == nil {
		msg, err := s.messages.GetByID(ctx, msgID)
		if err != nil {
			return time.Time{}, 0, err
		}
		return msg.Timestamp, msg.ID, nil
	}

	if ts, err := time.Parse(time.RFC3339, ref); err == nil {
		// Zero ID makes the tuple comparison strictly earlier than any
		// message at this timestamp.
		return ts, 0, nil
	}

	return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
}

func (s *retrievalService) resolveEra(ctx context.Context, selector string) (*model.Era, error) {
	if eraID, err := strconv.ParseInt(selector, 10, 64); err == nil {
		era, err := s.eras.GetByID(ctx, eraID)
		if err == nil {
			return era, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Fall through: a numeric name is still a valid name.
	}
	return s.eras.GetByName(ctx, selector)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
