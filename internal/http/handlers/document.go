package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/http/response"
	"github.com/yungbote/detailpage-backend/internal/services"
)

type DocumentHandler struct {
	editor services.EditorService
}

func NewDocumentHandler(editor services.EditorService) *DocumentHandler {
	return &DocumentHandler{editor: editor}
}

type createDocumentRequest struct {
	Product page.ProductInfo `json:"product"`
}

// POST /api/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	state, err := h.editor.Create(c.Request.Context(), req.Product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"document": state})
}

// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	docs, err := h.editor.List(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	state, err := h.editor.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": state})
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	if err := h.editor.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/documents/:id/product
func (h *DocumentHandler) SetProduct(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	var req page.ProductInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	state, err := h.editor.SetProduct(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": state})
}

// POST /api/documents/:id/undo
func (h *DocumentHandler) Undo(c *gin.Context) {
	h.history(c, h.editor.Undo)
}

// POST /api/documents/:id/redo
func (h *DocumentHandler) Redo(c *gin.Context) {
	h.history(c, h.editor.Redo)
}

// POST /api/documents/:id/reset
func (h *DocumentHandler) Reset(c *gin.Context) {
	h.history(c, h.editor.Reset)
}

func (h *DocumentHandler) history(c *gin.Context, op documentOp) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	state, err := op(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": state})
}
