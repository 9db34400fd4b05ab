package store

import (
	"context"
	"errors"
	"time"

	"mnemos.app/archive/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// EntityStore defines the contract for thinking-entity data access
type EntityStore interface {
	GetByName(ctx context.Context, name string) (*model.ThinkingEntity, error)
	// Ensure creates the entity on first sighting; existing entities are
	// returned unchanged (entities are immutable once referenced).
	Ensure(ctx context.Context, name string, isHuman bool) (*model.ThinkingEntity, error)
}

// EraStore defines the contract for era data access
type EraStore interface {
	GetByID(ctx context.Context, id int64) (*model.Era, error)
	GetByName(ctx context.Context, name string) (*model.Era, error)
	Create(ctx context.Context, era *model.Era) error
	// Ensure returns the era with the given name, creating it when absent.
	Ensure(ctx context.Context, name string) (*model.Era, error)
	List(ctx context.Context) ([]model.Era, error)
	AnchorBounds(ctx context.Context, eraID int64) (model.AnchorBounds, error)
}

// HeapStore defines the contract for context-heap data access
type HeapStore interface {
	GetByID(ctx context.Context, id int64) (*model.ContextHeap, error)
	Create(ctx context.Context, heap *model.ContextHeap) error
	ListByEra(ctx context.Context, eraID int64) ([]model.ContextHeap, error)
	AnchorBounds(ctx context.Context, heapID int64) (model.AnchorBounds, error)
}

// MessageStore defines the contract for message data access
type MessageStore interface {
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*model.Message, error)
	// GetByRef resolves a source-carried entry identifier (parent linkage).
	GetByRef(ctx context.Context, ref string) (*model.Message, error)
	Create(ctx context.Context, msg *model.Message) error
	// MaxSeq returns the highest sequence number in the heap, 0 when empty.
	MaxSeq(ctx context.Context, heapID int64) (int, error)
	LastInHeap(ctx context.Context, heapID int64) (*model.Message, error)
	ListByHeap(ctx context.Context, heapID int64) ([]model.Message, error)
	// ListByEra returns all messages of the era ordered by heap creation,
	// then sequence number.
	ListByEra(ctx context.Context, eraID int64) ([]model.Message, error)
	// ListBefore returns messages strictly before (ts, id), newest first.
	ListBefore(ctx context.Context, ts time.Time, id int64, limit int) ([]model.Message, error)
	// ListSince returns messages strictly after (ts, id), oldest first.
	ListSince(ctx context.Context, ts time.Time, id int64, limit int) ([]model.Message, error)
	ListRecent(ctx context.Context, limit int) ([]model.Message, error)
	// Search runs relevance-ranked full-text search, newest first within
	// equal rank.
	Search(ctx context.Context, query string, limit int) ([]model.Message, error)
}

// CompactingActionStore defines the contract for compaction-event records
type CompactingActionStore interface {
	Create(ctx context.Context, action *model.CompactingAction) error
	// Latest returns the most recent compacting action.
	Latest(ctx context.Context) (*model.CompactingAction, error)
	GetByStartedHeap(ctx context.Context, heapID int64) (*model.CompactingAction, error)
}

// NoteStore defines the contract for annotation data access
type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
	ListByTarget(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error)
}

// CursorStore defines the contract for per-source ingestion checkpoints
type CursorStore interface {
	Get(ctx context.Context, sourceID string) (*model.IngestionCursor, error)
	Upsert(ctx context.Context, cursor *model.IngestionCursor) error
}

// UnparsedStore preserves raw lines that failed to parse
type UnparsedStore interface {
	Create(ctx context.Context, entry *model.UnparsedEntry) error
	ListBySource(ctx context.Context, sourceID string) ([]model.UnparsedEntry, error)
}
