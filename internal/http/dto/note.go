package dto

import (
	"time"

	"mnemos.app/archive/internal/model"
)

type CreateNoteRequest struct {
	TargetKind string `json:"target_kind" binding:"required,oneof=era heap message"`
	TargetID   int64  `json:"target_id,string" binding:"required"`
	Author     string `json:"author" binding:"required,min=1,max=255"`
	Content    string `json:"content" binding:"required,min=1"`
	Anchor     *int64 `json:"anchor,omitempty"`
}

type NoteResponse struct {
	ID         int64            `json:"id,string"`
	TargetKind model.NoteTarget `json:"target_kind"`
	TargetID   int64            `json:"target_id,string"`
	Author     string           `json:"author"`
	Content    string           `json:"content"`
	Anchor     *int64           `json:"anchor,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func ToNoteResponse(n *model.Note) NoteResponse {
	return NoteResponse{
		ID:         n.ID,
		TargetKind: n.TargetKind,
		TargetID:   n.TargetID,
		Author:     n.Author,
		Content:    n.Content,
		Anchor:     n.Anchor,
		CreatedAt:  n.CreatedAt,
	}
}

func ToNoteResponses(notes []model.Note) []NoteResponse {
	if len(notes) == 0 {
		return nil
	}
	out := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		out = append(out, ToNoteResponse(&notes[i]))
	}
	return out
}

type NoteListResponse struct {
	Notes []NoteResponse `json:"notes"`
}
