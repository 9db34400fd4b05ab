package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mnemos.app/archive/internal/http/dto"
	"mnemos.app/archive/internal/service"
	"mnemos.app/archive/internal/store"
)

type MemoryHandler struct {
	retrieval service.RetrievalService
}

func NewMemoryHandler(retrieval service.RetrievalService) *MemoryHandler {
	return &MemoryHandler{retrieval: retrieval}
}

func (h *MemoryHandler) LatestContinuation(c *gin.Context) {
	ctx := c.Request.Context()

	cont, err := h.retrieval.LatestContinuation(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no compaction recorded yet"})
			return
		}
		slog.ErrorContext(ctx, "failed to load latest continuation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load latest continuation"})
		return
	}

	c.JSON(http.StatusOK, dto.ToContinuationResponse(cont))
}

func (h *MemoryHandler) MessagesBefore(c *gin.Context) {
	ctx := c.Request.Context()

	ref := c.Query("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ref is required"})
		return
	}

	msgs, err := h.retrieval.MessagesBefore(ctx, ref, queryLimit(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRef) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reference message not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to list messages before", "ref", ref, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageListResponse(msgs))
}

func (h *MemoryHandler) MessagesSince(c *gin.Context) {
	ctx := c.Request.Context()

	msgID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msgs, err := h.retrieval.MessagesSince(ctx, msgID, queryLimit(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reference message not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to list messages since", "message_id", msgID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageListResponse(msgs))
}

func (h *MemoryHandler) EraSummary(c *gin.Context) {
	ctx := c.Request.Context()
	selector := c.Param("selector")

	summary, err := h.retrieval.EraSummary(ctx, selector)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "era not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load era summary", "selector", selector, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load era summary"})
		return
	}

	c.JSON(http.StatusOK, dto.ToEraSummaryResponse(summary))
}

func (h *MemoryHandler) ListEras(c *gin.Context) {
	ctx := c.Request.Context()

	eras, err := h.retrieval.ListEras(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list eras", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list eras"})
		return
	}

	c.JSON(http.StatusOK, dto.ToEraListResponse(eras))
}

func (h *MemoryHandler) HeapDetail(c *gin.Context) {
	ctx := c.Request.Context()

	heapID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid heap id"})
		return
	}

	detail, err := h.retrieval.HeapDetail(ctx, heapID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "heap not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load heap", "heap_id", heapID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load heap"})
		return
	}

	c.JSON(http.StatusOK, dto.ToHeapDetailResponse(detail))
}

func (h *MemoryHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	query := c.Query("q")
	if query == "" {
		// An empty query is an empty result, not an error.
		c.JSON(http.StatusOK, dto.ToMessageListResponse(nil))
		return
	}

	msgs, err := h.retrieval.SearchMessages(ctx, query, queryLimit(c))
	if err != nil {
		slog.ErrorContext(ctx, "search failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageListResponse(msgs))
}

func (h *MemoryHandler) Recent(c *gin.Context) {
	ctx := c.Request.Context()

	msgs, err := h.retrieval.RecentWork(ctx, queryLimit(c))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list recent messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recent messages"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageListResponse(msgs))
}

// queryLimit reads the limit query parameter; non-positive and absent values
// fall through to the service default.
func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}
