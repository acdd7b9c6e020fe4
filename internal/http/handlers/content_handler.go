// Content-generation HTTP handlers.
//
// This file exposes the text-generation endpoints:
//   - GET  /actions    (the fixed action table)
//   - POST /generate   (run an action; set "stream": true for SSE)
//
// Streaming responses use Server-Sent Events: each model chunk is sent as a
// "chunk" event, and a final "done" event carries the persisted record and
// the remaining balance. Interruptions surface as an "error" event; nothing
// is persisted and the debit is refunded by the service layer.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

//
// DTOs
//

// GenerateRequest is the JSON payload for text generation.
type GenerateRequest struct {
	// Action names one of the fixed content actions.
	Action string `json:"action" binding:"required" example:"summarize"`
	// Content is the user input the action runs over.
	Content string `json:"content" binding:"required" example:"The meeting covered..."`
	// Stream selects the SSE response mode.
	Stream bool `json:"stream"`
}

// ActionInfo describes one entry of the action table.
type ActionInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Cost  int64  `json:"cost"`
}

// GenerateResponse is the non-streaming generation result.
type GenerateResponse struct {
	Generation *domain.GenerationRecord `json:"generation"`
	Credits    int64                    `json:"credits"`
}

//
// Handlers
//

// ListActions returns the fixed action table with per-action cost.
func (h *Handlers) ListActions(c *gin.Context) {
	actions := domain.Actions()
	out := make([]ActionInfo, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionInfo{Name: a.Name, Label: a.Label(), Cost: domain.ContentGenerationCost})
	}
	ok(c, http.StatusOK, "actions", out)
}

// GenerateContent runs a content action for the authenticated account.
func (h *Handlers) GenerateContent(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "action and content are required")
		return
	}

	if req.Stream {
		h.streamContent(c, req)
		return
	}

	res, err := h.contentSvc.Generate(c.Request.Context(), accountID(c), req.Action, req.Content)
	if err != nil {
		h.failService(c, err, ErrCodeGenerationFailed)
		return
	}
	ok(c, http.StatusOK, "content generated", GenerateResponse{Generation: res.Record, Credits: res.Balance})
}

// streamContent writes the generation as Server-Sent Events. Headers are
// committed on the first chunk, so validation and debit failures before that
// point still produce ordinary JSON errors.
func (h *Handlers) streamContent(c *gin.Context, req GenerateRequest) {
	flusher, canFlush := c.Writer.(http.Flusher)

	started := false
	start := func() {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
		started = true
	}

	emit := func(chunk string) error {
		if !started {
			start()
		}
		payload, err := json.Marshal(gin.H{"text": chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "event: chunk\ndata: %s\n\n", payload); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	res, err := h.contentSvc.GenerateStream(c.Request.Context(), accountID(c), req.Action, req.Content, emit)
	if err != nil {
		if !started {
			h.failService(c, err, ErrCodeGenerationFailed)
			return
		}
		// Headers are gone; report through the stream instead.
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":%q}\n\n", err.Error())
		if canFlush {
			flusher.Flush()
		}
		return
	}

	done, merr := json.Marshal(GenerateResponse{Generation: res.Record, Credits: res.Balance})
	if merr != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":%q}\n\n", merr.Error())
		if canFlush {
			flusher.Flush()
		}
		return
	}
	if !started {
		// Model produced no chunks; still deliver the terminal event.
		start()
	}
	fmt.Fprintf(c.Writer, "event: done\ndata: %s\n\n", done)
	if canFlush {
		flusher.Flush()
	}
}
