package model

import "time"

// IngestionCursor tracks how far a log source has been processed and which
// heap is currently open for it. It is the single source of truth for
// heap-boundary decisions and must survive restarts; it is only advanced
// after a batch is durably persisted.
type IngestionCursor struct {
	SourceID   string    `json:"source_id"`
	Position   int64     `json:"position"`
	OpenHeapID *int64    `json:"open_heap_id,string,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UnparsedEntry preserves a raw log line that didn't match any known entry
// shape, for later inspection. A malformed entry never aborts a batch.
type UnparsedEntry struct {
	ID         int64     `json:"id,string"`
	SourceID   string    `json:"source_id"`
	Position   int64     `json:"position"`
	Raw        string    `json:"raw"`
	ParseError string    `json:"parse_error"`
	CreatedAt  time.Time `json:"created_at"`
}

// BatchStats is the per-batch accounting emitted after each poll. The
// conservation law Seen == Created + Duplicates + Unparsed is checked before
// a batch commits.
type BatchStats struct {
	SourceID   string `json:"source_id"`
	Seen       int    `json:"seen"`
	Created    int    `json:"created"`
	Duplicates int    `json:"duplicates"`
	Unparsed   int    `json:"unparsed"`
	// Position the cursor advanced to.
	Position int64 `json:"position"`
}

// Consistent reports whether the conservation law holds.
func (s BatchStats) Consistent() bool {
	return s.Seen == s.Created+s.Duplicates+s.Unparsed
}
