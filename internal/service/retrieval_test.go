package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/service"
	"mnemos.app/archive/internal/store"
)

var _ = Describe("RetrievalService", func() {
	var (
		ctx      context.Context
		eras     *mockEraStore
		heaps    *mockHeapStore
		messages *mockMessageStore
		actions  *mockCompactingActionStore
		notes    *mockNoteStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		eras = &mockEraStore{}
		heaps = &mockHeapStore{}
		messages = &mockMessageStore{}
		actions = &mockCompactingActionStore{}
		notes = &mockNoteStore{}
	})

	newService := func() service.RetrievalService {
		return service.NewRetrievalService(eras, heaps, messages, actions, notes, nil)
	}

	Describe("LatestContinuation", func() {
		It("assembles the action with its heap, era and boundary message", func() {
			boundaryID := int64(7)
			actions.latestFn = func(_ context.Context) (*model.CompactingAction, error) {
				return &model.CompactingAction{ID: 1, StartedHeapID: 20, BoundaryMessageID: &boundaryID}, nil
			}
			heaps.getByIDFn = func(_ context.Context, id int64) (*model.ContextHeap, error) {
				Expect(id).To(Equal(int64(20)))
				return &model.ContextHeap{ID: 20, EraID: 3, Kind: model.HeapPostCompacting}, nil
			}
			eras.getByIDFn = func(_ context.Context, id int64) (*model.Era, error) {
				Expect(id).To(Equal(int64(3)))
				return &model.Era{ID: 3, Name: "Era One"}, nil
			}
			messages.getByIDFn = func(_ context.Context, id int64) (*model.Message, error) {
				Expect(id).To(Equal(boundaryID))
				return &model.Message{ID: boundaryID, HeapID: 20}, nil
			}

			cont, err := newService().LatestContinuation(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(cont.Action.ID).To(Equal(int64(1)))
			Expect(cont.Heap.ID).To(Equal(int64(20)))
			Expect(cont.Era.Name).To(Equal("Era One"))
			Expect(cont.Message.ID).To(Equal(boundaryID))
		})

		It("returns not found when no compaction has been recorded", func() {
			actions.latestFn = func(_ context.Context) (*model.CompactingAction, error) {
				return nil, store.ErrNotFound
			}

			_, err := newService().LatestContinuation(ctx)
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("tolerates a missing boundary message", func() {
			boundaryID := int64(404)
			actions.latestFn = func(_ context.Context) (*model.CompactingAction, error) {
				return &model.CompactingAction{StartedHeapID: 20, BoundaryMessageID: &boundaryID}, nil
			}
			heaps.getByIDFn = func(_ context.Context, _ int64) (*model.ContextHeap, error) {
				return &model.ContextHeap{ID: 20, EraID: 3}, nil
			}
			eras.getByIDFn = func(_ context.Context, _ int64) (*model.Era, error) {
				return &model.Era{ID: 3}, nil
			}
			messages.getByIDFn = func(_ context.Context, _ int64) (*model.Message, error) {
				return nil, store.ErrNotFound
			}

			cont, err := newService().LatestContinuation(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(cont.Message).To(BeNil())
		})
	})

	Describe("MessagesBefore", func() {
		It("resolves a numeric reference through the message row", func() {
			anchor := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
			messages.getByIDFn = func(_ context.Context, id int64) (*model.Message, error) {
				Expect(id).To(Equal(int64(42)))
				return &model.Message{ID: 42, Timestamp: anchor}, nil
			}
			messages.listBeforeFn = func(_ context.Context, ts time.Time, id int64, limit int) ([]model.Message, error) {
				Expect(ts).To(Equal(anchor))
				Expect(id).To(Equal(int64(42)))
				Expect(limit).To(Equal(50))
				return []model.Message{{ID: 41}}, nil
			}

			msgs, err := newService().MessagesBefore(ctx, "42", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
		})

		It("resolves a timestamp reference with a zero id cursor", func() {
			messages.listBeforeFn = func(_ context.Context, ts time.Time, id int64, limit int) ([]model.Message, error) {
				Expect(ts.Year()).To(Equal(2026))
				Expect(id).To(BeZero())
				Expect(limit).To(Equal(25))
				return nil, nil
			}

			_, err := newService().MessagesBefore(ctx, "2026-08-01T10:00:00Z", 25)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects references that are neither id nor timestamp", func() {
			_, err := newService().MessagesBefore(ctx, "yesterday-ish", 10)
			Expect(err).To(MatchError(service.ErrInvalidRef))
		})

		It("caps oversized limits", func() {
			messages.getByIDFn = func(_ context.Context, _ int64) (*model.Message, error) {
				return &model.Message{ID: 1}, nil
			}
			messages.listBeforeFn = func(_ context.Context, _ time.Time, _ int64, limit int) ([]model.Message, error) {
				Expect(limit).To(Equal(500))
				return nil, nil
			}

			_, err := newService().MessagesBefore(ctx, "1", 9999)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("MessagesSince", func() {
		It("pages forward from the named message", func() {
			anchor := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
			messages.getByIDFn = func(_ context.Context, id int64) (*model.Message, error) {
				return &model.Message{ID: id, Timestamp: anchor}, nil
			}
			messages.listSinceFn = func(_ context.Context, ts time.Time, id int64, limit int) ([]model.Message, error) {
				Expect(ts).To(Equal(anchor))
				Expect(id).To(Equal(int64(9)))
				return []model.Message{{ID: 10}, {ID: 11}}, nil
			}

			msgs, err := newService().MessagesSince(ctx, 9, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
		})

		It("propagates not found for an unknown message", func() {
			messages.getByIDFn = func(_ context.Context, _ int64) (*model.Message, error) {
				return nil, store.ErrNotFound
			}

			_, err := newService().MessagesSince(ctx, 9, 10)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("EraSummary", func() {
		It("resolves a numeric selector as an id first", func() {
			eras.getByIDFn = func(_ context.Context, id int64) (*model.Era, error) {
				Expect(id).To(Equal(int64(3)))
				return &model.Era{ID: 3, Name: "Era One"}, nil
			}
			heaps.listByEraFn = func(_ context.Context, _ int64) ([]model.ContextHeap, error) {
				return []model.ContextHeap{{ID: 20}}, nil
			}
			messages.listByEraFn = func(_ context.Context, _ int64) ([]model.Message, error) {
				return []model.Message{{ID: 1}, {ID: 2}}, nil
			}

			summary, err := newService().EraSummary(ctx, "3")
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Era.Name).To(Equal("Era One"))
			Expect(summary.Heaps).To(HaveLen(1))
			Expect(summary.Messages).To(HaveLen(2))
		})

		It("falls back to name lookup when the numeric id is unknown", func() {
			eras.getByIDFn = func(_ context.Context, _ int64) (*model.Era, error) {
				return nil, store.ErrNotFound
			}
			eras.getByNameFn = func(_ context.Context, name string) (*model.Era, error) {
				Expect(name).To(Equal("2049"))
				return &model.Era{ID: 8, Name: "2049"}, nil
			}

			summary, err := newService().EraSummary(ctx, "2049")
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Era.ID).To(Equal(int64(8)))
		})
	})

	Describe("HeapDetail", func() {
		It("loads the compaction record only for post-compacting heaps", func() {
			heaps.getByIDFn = func(_ context.Context, id int64) (*model.ContextHeap, error) {
				return &model.ContextHeap{ID: id, Kind: model.HeapPostCompacting}, nil
			}
			actions.getByStartedHeapFn = func(_ context.Context, heapID int64) (*model.CompactingAction, error) {
				return &model.CompactingAction{StartedHeapID: heapID}, nil
			}

			detail, err := newService().HeapDetail(ctx, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Compaction).NotTo(BeNil())
			Expect(detail.Compaction.StartedHeapID).To(Equal(int64(20)))
		})

		It("leaves the compaction empty for fresh heaps", func() {
			heaps.getByIDFn = func(_ context.Context, id int64) (*model.ContextHeap, error) {
				return &model.ContextHeap{ID: id, Kind: model.HeapFresh}, nil
			}
			actions.getByStartedHeapFn = func(_ context.Context, _ int64) (*model.CompactingAction, error) {
				Fail("should not consult compacting actions for a fresh heap")
				return nil, nil
			}

			detail, err := newService().HeapDetail(ctx, 21)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Compaction).To(BeNil())
		})
	})

	Describe("SearchMessages", func() {
		It("returns nothing for an empty or whitespace query", func() {
			messages.searchFn = func(_ context.Context, _ string, _ int) ([]model.Message, error) {
				Fail("store search should not run for an empty query")
				return nil, nil
			}

			msgs, err := newService().SearchMessages(ctx, "   ", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(BeEmpty())
		})

		It("uses store full-text search when no external searcher is wired", func() {
			messages.searchFn = func(_ context.Context, query string, limit int) ([]model.Message, error) {
				Expect(query).To(Equal("refactor"))
				Expect(limit).To(Equal(50))
				return []model.Message{{ID: 5}}, nil
			}

			msgs, err := newService().SearchMessages(ctx, "refactor", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
		})

		It("hydrates searcher hits and skips ids the store no longer has", func() {
			searcher := &mockSearcher{
				searchFn: func(_ context.Context, _ string, _ int) ([]int64, error) {
					return []int64{5, 6, 7}, nil
				},
			}
			messages.getByIDFn = func(_ context.Context, id int64) (*model.Message, error) {
				if id == 6 {
					return nil, store.ErrNotFound
				}
				return &model.Message{ID: id}, nil
			}
			messages.searchFn = func(_ context.Context, _ string, _ int) ([]model.Message, error) {
				Fail("store search should not run when a searcher is wired")
				return nil, nil
			}

			svc := service.NewRetrievalService(eras, heaps, messages, actions, notes, searcher)
			msgs, err := svc.SearchMessages(ctx, "refactor", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].ID).To(Equal(int64(5)))
			Expect(msgs[1].ID).To(Equal(int64(7)))
		})
	})

	Describe("RecentWork", func() {
		It("clamps the limit before hitting the store", func() {
			messages.listRecentFn = func(_ context.Context, limit int) ([]model.Message, error) {
				Expect(limit).To(Equal(50))
				return []model.Message{{ID: 1}}, nil
			}

			msgs, err := newService().RecentWork(ctx, -3)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
		})
	})
})
