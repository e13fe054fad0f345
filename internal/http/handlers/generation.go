package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/http/response"
	"github.com/yungbote/detailpage-backend/internal/services"
)

type GenerationHandler struct {
	gen services.GenerationService
}

func NewGenerationHandler(gen services.GenerationService) *GenerationHandler {
	return &GenerationHandler{gen: gen}
}

// POST /api/documents/:id/sections/:sid/ai/copy
func (h *GenerationHandler) Copy(c *gin.Context) {
	h.run(c, h.gen.GenerateCopyForSection)
}

// POST /api/documents/:id/sections/:sid/ai/image
func (h *GenerationHandler) Image(c *gin.Context) {
	h.run(c, h.gen.GenerateImageForSection)
}

// POST /api/documents/:id/sections/:sid/ai/gallery
func (h *GenerationHandler) Gallery(c *gin.Context) {
	h.run(c, h.gen.GenerateGallery)
}

func (h *GenerationHandler) run(c *gin.Context, op func(ctx context.Context, docID uuid.UUID, sectionID string) (*services.DocumentState, error)) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	state, err := op(c.Request.Context(), id, c.Param("sid"))
	if err != nil {
		respondAIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": state})
}
