package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/export"
	"github.com/yungbote/detailpage-backend/internal/http/response"
	"github.com/yungbote/detailpage-backend/internal/pagebuilder"
	"github.com/yungbote/detailpage-backend/internal/platform/apierr"
	"github.com/yungbote/detailpage-backend/internal/services"
)

var errEmptyPatch = errors.New("patch carries no fields")

var knownErrors = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrDocumentNotFound, http.StatusNotFound, "document_not_found"},
	{pagebuilder.ErrSectionNotFound, http.StatusNotFound, "section_not_found"},
	{pagebuilder.ErrLastSection, http.StatusConflict, "last_section"},
	{pagebuilder.ErrInvalidSectionType, http.StatusBadRequest, "invalid_section_type"},
	{pagebuilder.ErrInvalidDirection, http.StatusBadRequest, "invalid_direction"},
	{services.ErrProductRequired, http.StatusBadRequest, "product_required"},
	{services.ErrNotGallery, http.StatusBadRequest, "not_gallery"},
	{services.ErrAIUnavailable, http.StatusServiceUnavailable, "ai_unavailable"},
	{services.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
	{export.ErrPageTooLarge, http.StatusUnprocessableEntity, "page_too_large"},
}

// classify maps a service error to its HTTP form. Errors it does not know
// get fallbackStatus and fallbackCode.
func classify(err error, fallbackStatus int, fallbackCode string) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return apierr.New(k.status, k.code, err)
		}
	}
	return apierr.New(fallbackStatus, fallbackCode, err)
}

func respondServiceError(c *gin.Context, err error) {
	response.RespondAPIError(c, classify(err, http.StatusInternalServerError, "internal_error"))
}

// respondAIError treats unknown failures as upstream model errors.
func respondAIError(c *gin.Context, err error) {
	response.RespondAPIError(c, classify(err, http.StatusBadGateway, "ai_failed"))
}

func documentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return uuid.Nil, false
	}
	return id, true
}
