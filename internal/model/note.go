package model

import (
	"fmt"
	"time"
)

// NoteTarget tags which entity kind a note is attached to. A tagged
// reference keeps eras, heaps and messages out of a shared base type.
type NoteTarget string

const (
	NoteOnEra     NoteTarget = "era"
	NoteOnHeap    NoteTarget = "heap"
	NoteOnMessage NoteTarget = "message"
)

func (t NoteTarget) Valid() bool {
	switch t {
	case NoteOnEra, NoteOnHeap, NoteOnMessage:
		return true
	}
	return false
}

// Note is a free-text annotation authored by a thinking entity, attached to
// exactly one era, heap, or message. Notes never affect ingestion; they are
// purely observational (import metadata, editorial comments, corrections,
// context about incomplete conversations).
type Note struct {
	ID         int64      `json:"id,string"`
	TargetKind NoteTarget `json:"target_kind"`
	TargetID   int64      `json:"target_id,string"`
	Author     string     `json:"author"`
	Content    string     `json:"content"`
	Anchor     *int64     `json:"anchor,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks the tagged reference before persistence.
func (n *Note) Validate() error {
	if !n.TargetKind.Valid() {
		return fmt.Errorf("invalid note target kind %q", n.TargetKind)
	}
	if n.TargetID == 0 {
		return fmt.Errorf("note target id is required")
	}
	if n.Author == "" {
		return fmt.Errorf("note author is required")
	}
	if n.Content == "" {
		return fmt.Errorf("note content is required")
	}
	return nil
}
