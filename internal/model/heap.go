package model

import "time"

// HeapKind records why a context heap was created.
type HeapKind string

const (
	// HeapFresh is the first heap of a session.
	HeapFresh HeapKind = "fresh"
	// HeapPostCompacting begins right after a compaction event.
	HeapPostCompacting HeapKind = "post_compacting"
	// HeapSplitPoint begins because heap resolution was ambiguous
	// (e.g., an entry's parent could not be located in any heap).
	HeapSplitPoint HeapKind = "split_point"
)

func (k HeapKind) Valid() bool {
	switch k {
	case HeapFresh, HeapPostCompacting, HeapSplitPoint:
		return true
	}
	return false
}

// ContextHeap is the short-term memory of an AI thinking entity: an ordered,
// contiguous run of messages sharing one continuous reasoning context,
// scoped to exactly one era. In some circles this is called a "context
// window". Heaps are append-only; once a message lands in one, the heap is
// never deleted.
type ContextHeap struct {
	ID     int64    `json:"id,string"`
	EraID  int64    `json:"era_id,string"`
	Kind   HeapKind `json:"kind"`
	// SourceID is the log source this heap was opened for.
	SourceID string `json:"source_id"`
	// ParentHeapID is set for split_point heaps: the heap the split
	// originated from, when it could be determined.
	ParentHeapID *int64    `json:"parent_heap_id,string,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
