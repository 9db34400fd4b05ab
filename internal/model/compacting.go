package model

import "time"

// CompactingAction records a detected compaction event: the heap that ended,
// the heap that began, and the boundary message that triggered it. Not every
// heap boundary has one - some heaps just end naturally.
type CompactingAction struct {
	ID int64 `json:"id,string"`
	// EndedHeapID is nil when the compaction was seen before any heap was
	// open for the source (e.g., a summary-only log).
	EndedHeapID   *int64 `json:"ended_heap_id,string,omitempty"`
	StartedHeapID int64  `json:"started_heap_id,string"`
	// BoundaryMessageID is the message that opened the started heap.
	BoundaryMessageID *int64 `json:"boundary_message_id,string,omitempty"`
	// EndingMessageID is the last message of the ended heap.
	EndingMessageID  *int64    `json:"ending_message_id,string,omitempty"`
	Summary          *string   `json:"summary,omitempty"`
	Trigger          *string   `json:"trigger,omitempty"`
	PreCompactTokens *int      `json:"pre_compact_tokens,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
