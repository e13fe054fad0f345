package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
	"github.com/yungbote/detailpage-backend/internal/services"
)

type RealtimeHandler struct {
	log    *logger.Logger
	hub    *realtime.SSEHub
	editor services.EditorService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, editor services.EditorService) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub, editor: editor}
}

// GET /api/documents/:id/events
//
// Streams every event on the document channel until the client goes away.
func (h *RealtimeHandler) DocumentEvents(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	if _, err := h.editor.Get(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	client := h.hub.NewSSEClient()
	client.Logger = h.log.With("sse_client_id", client.ID, "document_id", id)
	h.hub.AddChannel(client, realtime.DocumentChannel(id))
	defer h.hub.CloseClient(client)

	client.Logger.Debug("SSE stream open")
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	client.Logger.Debug("SSE stream closed")
}
