package service

import (
	"context"
	"errors"
	"fmt"

	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/store"
)

// ErrUnknownTarget is returned when a note references an era, heap or
// message that does not exist.
var ErrUnknownTarget = errors.New("note target does not exist")

type NoteService interface {
	Create(ctx context.Context, note *model.Note) error
	ListByTarget(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error)
}

type noteService struct {
	notes    store.NoteStore
	entities store.EntityStore
	eras     store.EraStore
	heaps    store.HeapStore
	messages store.MessageStore
}

func NewNoteService(
	notes store.NoteStore,
	entities store.EntityStore,
	eras store.EraStore,
	heaps store.HeapStore,
	messages store.MessageStore,
) NoteService {
	return &noteService{
		notes:    notes,
		entities: entities,
		eras:     eras,
		heaps:    heaps,
		messages: messages,
	}
}

func (s *noteService) Create(ctx context.Context, note *model.Note) error {
	if err := note.Validate(); err != nil {
		return err
	}

	if err := s.checkTarget(ctx, note.TargetKind, note.TargetID); err != nil {
		return err
	}

	// Note authors may be new entities (a human annotating after the fact).
	if _, err := s.entities.Ensure(ctx, note.Author, true); err != nil {
		return fmt.Errorf("ensuring author %q: %w", note.Author, err)
	}

	return s.notes.Create(ctx, note)
}

func (s *noteService) ListByTarget(ctx context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid note target kind %q", kind)
	}
	if err := s.checkTarget(ctx, kind, targetID); err != nil {
		return nil, err
	}
	return s.notes.ListByTarget(ctx, kind, targetID)
}

func (s *noteService) checkTarget(ctx context.Context, kind model.NoteTarget, targetID int64) error {
	var err error
	switch kind {
	case model.NoteOnEra:
		_, err = s.eras.GetByID(ctx, targetID)
	case model.NoteOnHeap:
		_, err = s.heaps.GetByID(ctx, targetID)
	case model.NoteOnMessage:
		_, err = s.messages.GetByID(ctx, targetID)
	default:
		return fmt.Errorf("invalid note target kind %q", kind)
	}

	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", ErrUnknownTarget, kind, targetID)
	}
	return err
}
