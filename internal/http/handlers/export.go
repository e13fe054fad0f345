package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/detailpage-backend/internal/preview"
	"github.com/yungbote/detailpage-backend/internal/services"
)

type ExportHandler struct {
	exports services.ExportService
}

func NewExportHandler(exports services.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// GET /api/documents/:id/preview
//
// ?chrome=false drops the phone frame, matching what export renders.
func (h *ExportHandler) Preview(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	chrome := true
	if raw := c.Query("chrome"); raw != "" {
		chrome, _ = strconv.ParseBool(raw)
	}
	var buf bytes.Buffer
	if err := h.exports.Preview(c.Request.Context(), id, &buf, preview.Options{Chrome: chrome}); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GET /api/documents/:id/export.png
//
// ?upload=true stores the PNG in the bucket and answers with its URL.
func (h *ExportHandler) ExportPNG(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	upload, _ := strconv.ParseBool(c.Query("upload"))
	res, err := h.exports.Export(c.Request.Context(), id, upload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if upload {
		c.JSON(http.StatusOK, gin.H{"file_name": res.FileName, "url": res.URL})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.Data(http.StatusOK, "image/png", res.PNG)
}
