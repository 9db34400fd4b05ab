package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mnemos.app/archive/internal/http/handler"
	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/service"
)

var _ = Describe("NoteHandler", func() {
	var (
		router *gin.Engine
		svc    *mockNoteService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockNoteService{}
		h := handler.NewNoteHandler(svc)

		router.POST("/notes", h.Create)
		router.GET("/notes", h.List)
	})

	post := func(body map[string]any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates a note", func() {
		svc.createFn = func(_ context.Context, note *model.Note) error {
			Expect(note.TargetKind).To(Equal(model.NoteOnHeap))
			Expect(note.TargetID).To(Equal(int64(20)))
			Expect(note.Author).To(Equal("justin"))
			note.ID = 99
			return nil
		}

		w := post(map[string]any{
			"target_kind": "heap",
			"target_id":   "20",
			"author":      "justin",
			"content":     "imported from the old archive",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["id"]).To(Equal("99"))
	})

	It("rejects a body with an unknown target kind", func() {
		w := post(map[string]any{
			"target_kind": "universe",
			"target_id":   "20",
			"author":      "justin",
			"content":     "hi",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects a body missing required fields", func() {
		w := post(map[string]any{"target_kind": "heap", "target_id": "20"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 when the target does not exist", func() {
		svc.createFn = func(_ context.Context, _ *model.Note) error {
			return service.ErrUnknownTarget
		}

		w := post(map[string]any{
			"target_kind": "message",
			"target_id":   "12345",
			"author":      "justin",
			"content":     "orphan note",
		})
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("lists notes for a target", func() {
		svc.listByTargetFn = func(_ context.Context, kind model.NoteTarget, targetID int64) ([]model.Note, error) {
			Expect(kind).To(Equal(model.NoteOnEra))
			Expect(targetID).To(Equal(int64(3)))
			return []model.Note{{ID: 1, Content: "era wrapped up"}}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/notes?target_kind=era&target_id=3", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["notes"].([]any)).To(HaveLen(1))
	})

	It("rejects listing with a bad target kind", func() {
		req := httptest.NewRequest(http.MethodGet, "/notes?target_kind=universe&target_id=3", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects listing with a non-numeric target id", func() {
		req := httptest.NewRequest(http.MethodGet, "/notes?target_kind=era&target_id=abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
