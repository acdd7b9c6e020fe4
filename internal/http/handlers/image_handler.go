// Image-generation HTTP handler.
//
// POST /image runs the diffusion model for the authenticated account and
// returns the published asset URL. Unknown resolutions silently fall back to
// the default instead of failing, matching the permissive behavior clients
// depend on.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

// ImageRequest is the JSON payload for image generation.
type ImageRequest struct {
	// Prompt describes the image to generate.
	Prompt string `json:"prompt" binding:"required" example:"a lighthouse at dawn, oil painting"`
	// Resolution names one of the supported sizes; empty selects the default.
	Resolution string `json:"resolution" example:"1024x1024"`
}

// ImageResponse is the image generation result.
type ImageResponse struct {
	Generation *domain.GenerationRecord `json:"generation"`
	URL        string                   `json:"url"`
	Credits    int64                    `json:"credits"`
	Cached     bool                     `json:"cached"`
}

// GenerateImage produces an image for the authenticated account.
func (h *Handlers) GenerateImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt is required")
		return
	}

	res, err := h.imageSvc.Generate(c.Request.Context(), accountID(c), req.Prompt, req.Resolution)
	if err != nil {
		h.failService(c, err, ErrCodeGenerationFailed)
		return
	}
	ok(c, http.StatusOK, "image generated", ImageResponse{
		Generation: res.Record,
		URL:        res.Record.Output,
		Credits:    res.Balance,
		Cached:     res.Cached,
	})
}
