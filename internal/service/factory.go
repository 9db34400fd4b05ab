package service

import (
	"mnemos.app/archive/internal/search"
	"mnemos.app/archive/internal/store"
)

type Services struct {
	stores   *store.Stores
	txRunner TxRunner
	searcher search.Searcher
}

func NewServices(stores *store.Stores, txRunner TxRunner, searcher search.Searcher) *Services {
	return &Services{
		stores:   stores,
		txRunner: txRunner,
		searcher: searcher,
	}
}

func (s *Services) Retrieval() RetrievalService {
	return NewRetrievalService(
		s.stores.Eras(),
		s.stores.Heaps(),
		s.stores.Messages(),
		s.stores.CompactingActions(),
		s.stores.Notes(),
		s.searcher,
	)
}

func (s *Services) Notes() NoteService {
	return NewNoteService(
		s.stores.Notes(),
		s.stores.Entities(),
		s.stores.Eras(),
		s.stores.Heaps(),
		s.stores.Messages(),
	)
}
