package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mnemos.app/archive/internal/http/dto"
	"mnemos.app/archive/internal/model"
	"mnemos.app/archive/internal/service"
)

type NoteHandler struct {
	noteService service.NoteService
}

func NewNoteHandler(noteService service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note := &model.Note{
		TargetKind: model.NoteTarget(req.TargetKind),
		TargetID:   req.TargetID,
		Author:     req.Author,
		Content:    req.Content,
		Anchor:     req.Anchor,
	}

	if err := h.noteService.Create(ctx, note); err != nil {
		if errors.Is(err, service.ErrUnknownTarget) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to create note", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create note"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToNoteResponse(note))
}

func (h *NoteHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	kind := model.NoteTarget(c.Query("target_kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_kind must be era, heap or message"})
		return
	}

	targetID, err := strconv.ParseInt(c.Query("target_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_id"})
		return
	}

	notes, err := h.noteService.ListByTarget(ctx, kind, targetID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownTarget) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to list notes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notes"})
		return
	}

	c.JSON(http.StatusOK, dto.NoteListResponse{Notes: dto.ToNoteResponses(notes)})
}
