package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/http/response"
)

type sectionTypeInfo struct {
	Type     page.SectionType `json:"type"`
	Label    string           `json:"label"`
	Guide    string           `json:"guide"`
	HasItems bool             `json:"has_items"`
}

type SectionTypeHandler struct{}

func NewSectionTypeHandler() *SectionTypeHandler { return &SectionTypeHandler{} }

// GET /api/section-types
func (h *SectionTypeHandler) List(c *gin.Context) {
	out := make([]sectionTypeInfo, 0, len(page.SectionTypes))
	for _, t := range page.SectionTypes {
		out = append(out, sectionTypeInfo{Type: t, Label: t.Label(), Guide: t.Guide(), HasItems: t.HasItems()})
	}
	response.RespondOK(c, gin.H{"section_types": out})
}
