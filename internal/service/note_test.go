package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/service"
	"mnemos.app/archive/internal/store"
)

var _ = Describe("NoteService", func() {
	var (
		ctx      context.Context
		notes    *mockNoteStore
		entities *mockEntityStore
		eras     *mockEraStore
		heaps    *mockHeapStore
		messages *mockMessageStore
		svc      service.NoteService
	)

	BeforeEach(func() {
		ctx = context.Background()
		notes = &mockNoteStore{}
		entities = &mockEntityStore{}
		eras = &mockEraStore{}
		heaps = &mockHeapStore{}
		messages = &mockMessageStore{}
		svc = service.NewNoteService(notes, entities, eras, heaps, messages)
	})

	Describe("Create", func() {
		It("rejects notes with an invalid target kind", func() {
			err := svc.Create(ctx, &model.Note{
				TargetKind: "universe", TargetID: 1, Author: "justin", Content: "hi",
			})
			Expect(err).To(MatchError(ContainSubstring("invalid note target kind")))
			Expect(notes.createCalls).To(BeZero())
		})

		It("rejects notes whose target does not exist", func() {
			heaps.getByIDFn = func(_ context.Context, _ int64) (*model.ContextHeap, error) {
				return nil, store.ErrNotFound
			}

			err := svc.Create(ctx, &model.Note{
				TargetKind: model.NoteOnHeap, TargetID: 99, Author: "justin", Content: "hi",
			})
			Expect(err).To(MatchError(service.ErrUnknownTarget))
			Expect(notes.createCalls).To(BeZero())
		})

		It("ensures the author exists as a human entity before persisting", func() {
			messages.getByIDFn = func(_ context.Context, id int64) (*model.Message, error) {
				return &model.Message{ID: id}, nil
			}
			entities.ensureFn = func(_ context.Context, name string, isHuman bool) (*model.ThinkingEntity, error) {
				Expect(name).To(Equal("justin"))
				Expect(isHuman).To(BeTrue())
				return &model.ThinkingEntity{Name: name, IsHuman: isHuman}, nil
			}

			err := svc.Create(ctx, &model.Note{
				TargetKind: model.NoteOnMessage, TargetID: 7, Author: "justin", Content: "imported from backup",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(entities.ensureCalls).To(Equal(1))
			Expect(notes.createCalls).To(Equal(1))
		})
	})

	Describe("ListByTarget", func() {
		It("rejects invalid target kinds", func() {
			_, err := svc.ListByTarget(ctx, "universe", 1)
			Expect(err).To(MatchError(ContainSubstring("invalid note target kind")))
		})

		It("verifies the target before listing", func() {
			eras.getByIDFn = func(_ context.Context, _ int64) (*model.Era, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.ListByTarget(ctx, model.NoteOnEra, 3)
			Expect(err).To(MatchError(service.ErrUnknownTarget))
		})

		It("returns the target's notes", func() {
			eras.getByIDFn = func(_ context.Context, id int64) (*model.Era, error) {
				return &model.Era{ID: id}, nil
			}
			notes.listByTargetFn = func(_ context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error) {
				Expect(kind).To(Equal(model.NoteOnEra))
				Expect(targetID).To(Equal(int64(3)))
				return []model.Note{{ID: 1, Content: "era wrapped up"}}, nil
			}

			got, err := svc.ListByTarget(ctx, model.NoteOnEra, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
		})
	})
})
