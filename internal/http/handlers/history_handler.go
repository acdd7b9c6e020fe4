// History HTTP handlers.
//
// This file exposes read access to past generations:
//   - GET /history            (text generations, paginated, ETag support)
//   - GET /history/images     (image generations, paginated, ETag support)
//   - GET /history/search     (substring search over prompt and output)
//   - GET /history/:id        (single record)
//
// History is append-only, so (count, latest-created-at) fully determines a
// listing and makes a cheap weak ETag.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

// HistoryResponse wraps a page of generations and pagination information.
type HistoryResponse struct {
	Generations []domain.GenerationRecord `json:"generations"`
	Pagination  Pagination                `json:"pagination"`
}

// ListHistory returns a page of the account's text generations.
func (h *Handlers) ListHistory(c *gin.Context) {
	h.listHistory(c, false)
}

// ListImageHistory returns a page of the account's image generations.
func (h *Handlers) ListImageHistory(c *gin.Context) {
	h.listHistory(c, true)
}

func (h *Handlers) listHistory(c *gin.Context, imageOnly bool) {
	ctx := c.Request.Context()
	uid := accountID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.historySvc.Stats(ctx, uid, imageOnly); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		kind := "text"
		if imageOnly {
			kind = "image"
		}
		etag := fmt.Sprintf(`W/"history:%s:%s:%d:%d"`, kind, uid, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.historySvc.ListPage(ctx, uid, imageOnly, page, pageSize)
	if err != nil {
		h.failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, "history", HistoryResponse{
		Generations: items,
		Pagination:  paginationFor(page, pageSize, total),
	})
}

// SearchHistory returns the account's generations matching the q parameter.
func (h *Handlers) SearchHistory(c *gin.Context) {
	items, err := h.historySvc.Search(c.Request.Context(), accountID(c), c.Query("q"))
	if err != nil {
		h.failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, "search results", items)
}

// GetGeneration returns a single generation owned by the account.
func (h *Handlers) GetGeneration(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "generation id must be a UUID")
		return
	}

	rec, err := h.historySvc.Get(c.Request.Context(), accountID(c), id)
	if err != nil {
		h.failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, "generation", rec)
}
