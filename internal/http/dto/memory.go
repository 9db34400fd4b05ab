package dto

import (
	"encoding/json"
	"time"

	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/service"
)

type MessageResponse struct {
	ID          int64             `json:"id,string"`
	HeapID      int64             `json:"heap_id,string"`
	Seq         int               `json:"seq"`
	Kind        model.MessageKind `json:"kind"`
	Sender      string            `json:"sender"`
	ParentID    *int64            `json:"parent_id,string,omitempty"`
	SessionID   *string           `json:"session_id,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Anchor      *int64            `json:"anchor,omitempty"`
	Payload     json.RawMessage   `json:"payload"`
	ContentText string            `json:"content_text"`
	CreatedAt   time.Time         `json:"created_at"`
}

func ToMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		HeapID:      m.HeapID,
		Seq:         m.Seq,
		Kind:        m.Kind,
		Sender:      m.Sender,
		ParentID:    m.ParentID,
		SessionID:   m.SessionID,
		Timestamp:   m.Timestamp,
		Anchor:      m.Anchor,
		Payload:     m.Payload,
		ContentText: m.ContentText,
		CreatedAt:   m.CreatedAt,
	}
}

func ToMessageResponses(msgs []model.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageResponse(m))
	}
	return out
}

type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
	Count    int               `json:"count"`
}

func ToMessageListResponse(msgs []model.Message) MessageListResponse {
	out := ToMessageResponses(msgs)
	return MessageListResponse{Messages: out, Count: len(out)}
}

type HeapResponse struct {
	ID           int64          `json:"id,string"`
	EraID        int64          `json:"era_id,string"`
	Kind         model.HeapKind `json:"kind"`
	SourceID     string         `json:"source_id"`
	ParentHeapID *int64         `json:"parent_heap_id,string,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func ToHeapResponse(h model.ContextHeap) HeapResponse {
	return HeapResponse{
		ID:           h.ID,
		EraID:        h.EraID,
		Kind:         h.Kind,
		SourceID:     h.SourceID,
		ParentHeapID: h.ParentHeapID,
		CreatedAt:    h.CreatedAt,
	}
}

type EraResponse struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func ToEraResponse(e model.Era) EraResponse {
	return EraResponse{ID: e.ID, Name: e.Name, CreatedAt: e.CreatedAt}
}

type AnchorBoundsResponse struct {
	Earliest *int64 `json:"earliest,omitempty"`
	Latest   *int64 `json:"latest,omitempty"`
}

type CompactingActionResponse struct {
	ID                int64     `json:"id,string"`
	EndedHeapID       *int64    `json:"ended_heap_id,string,omitempty"`
	StartedHeapID     int64     `json:"started_heap_id,string"`
	BoundaryMessageID *int64    `json:"boundary_message_id,string,omitempty"`
	EndingMessageID   *int64    `json:"ending_message_id,string,omitempty"`
	Summary           *string   `json:"summary,omitempty"`
	Trigger           *string   `json:"trigger,omitempty"`
	PreCompactTokens  *int      `json:"pre_compact_tokens,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func ToCompactingActionResponse(a model.CompactingAction) CompactingActionResponse {
	return CompactingActionResponse{
		ID:                a.ID,
		EndedHeapID:       a.EndedHeapID,
		StartedHeapID:     a.StartedHeapID,
		BoundaryMessageID: a.BoundaryMessageID,
		EndingMessageID:   a.EndingMessageID,
		Summary:           a.Summary,
		Trigger:           a.Trigger,
		PreCompactTokens:  a.PreCompactTokens,
		CreatedAt:         a.CreatedAt,
	}
}

type ContinuationResponse struct {
	Action  CompactingActionResponse `json:"action"`
	Message *MessageResponse         `json:"message,omitempty"`
	Heap    HeapResponse             `json:"heap"`
	Era     EraResponse              `json:"era"`
}

func ToContinuationResponse(c *service.Continuation) ContinuationResponse {
	resp := ContinuationResponse{
		Action: ToCompactingActionResponse(*c.Action),
		Heap:   ToHeapResponse(*c.Heap),
		Era:    ToEraResponse(*c.Era),
	}
	if c.Message != nil {
		msg := ToMessageResponse(*c.Message)
		resp.Message = &msg
	}
	return resp
}

type EraSummaryResponse struct {
	Era      EraResponse          `json:"era"`
	Heaps    []HeapResponse       `json:"heaps"`
	Messages []MessageResponse    `json:"messages"`
	Bounds   AnchorBoundsResponse `json:"bounds"`
	Notes    []NoteResponse       `json:"notes,omitempty"`
}

func ToEraSummaryResponse(s *service.EraSummary) EraSummaryResponse {
	heaps := make([]HeapResponse, 0, len(s.Heaps))
	for _, h := range s.Heaps {
		heaps = append(heaps, ToHeapResponse(h))
	}
	return EraSummaryResponse{
		Era:      ToEraResponse(*s.Era),
		Heaps:    heaps,
		Messages: ToMessageResponses(s.Messages),
		Bounds:   AnchorBoundsResponse{Earliest: s.Bounds.Earliest, Latest: s.Bounds.Latest},
		Notes:    ToNoteResponses(s.Notes),
	}
}

type HeapDetailResponse struct {
	Heap       HeapResponse              `json:"heap"`
	Messages   []MessageResponse         `json:"messages"`
	Bounds     AnchorBoundsResponse      `json:"bounds"`
	Compaction *CompactingActionResponse `json:"compaction,omitempty"`
	Notes      []NoteResponse            `json:"notes,omitempty"`
}

func ToHeapDetailResponse(d *service.HeapDetail) HeapDetailResponse {
	resp := HeapDetailResponse{
		Heap:     ToHeapResponse(*d.Heap),
		Messages: ToMessageResponses(d.Messages),
		Bounds:   AnchorBoundsResponse{Earliest: d.Bounds.Earliest, Latest: d.Bounds.Latest},
		Notes:    ToNoteResponses(d.Notes),
	}
	if d.Compaction != nil {
		action := ToCompactingActionResponse(*d.Compaction)
		resp.Compaction = &action
	}
	return resp
}

type EraListResponse struct {
	Eras []EraResponse `json:"eras"`
}

func ToEraListResponse(eras []model.Era) EraListResponse {
	out := make([]EraResponse, 0, len(eras))
	for _, e := range eras {
		out = append(out, ToEraResponse(e))
	}
	return EraListResponse{Eras: out}
}
