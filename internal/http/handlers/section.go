package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/http/response"
	"github.com/yungbote/detailpage-backend/internal/pagebuilder"
	"github.com/yungbote/detailpage-backend/internal/services"
)

type documentOp func(ctx context.Context, id uuid.UUID) (*services.DocumentState, error)

type SectionHandler struct {
	editor services.EditorService
}

func NewSectionHandler(editor services.EditorService) *SectionHandler {
	return &SectionHandler{editor: editor}
}

type addSectionRequest struct {
	Type string `json:"type" binding:"required"`
}

// POST /api/documents/:id/sections
func (h *SectionHandler) Add(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	var req addSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := page.ParseSectionType(req.Type)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_section_type", err)
		return
	}
	added, state, err := h.editor.AddSection(c.Request.Context(), id, t)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"section": added, "document": state})
}

// PATCH /api/documents/:id/sections/:sid
func (h *SectionHandler) Update(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	var patch page.SectionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if patch.Empty() {
		response.RespondError(c, http.StatusBadRequest, "empty_patch", errEmptyPatch)
		return
	}
	state, err := h.editor.UpdateSection(c.Request.Context(), id, c.Param("sid"), patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": state})
}

// DELETE /api/documents/:id/sections/:sid
func (h *SectionHandler) Delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	state, err := h.editor.DeleteSection(c.Request.Context(), id, c.Param("sid"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": state})
}

type moveSectionRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// POST /api/documents/:id/sections/:sid/move
func (h *SectionHandler) Move(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	var req moveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dir, err := pagebuilder.ParseDirection(req.Direction)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	state, err := h.editor.MoveSection(c.Request.Context(), id, c.Param("sid"), dir)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": state})
}
