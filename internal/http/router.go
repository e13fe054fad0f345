package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/detailpage-backend/internal/http/handlers"
	httpMW "github.com/yungbote/detailpage-backend/internal/http/middleware"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	HealthHandler      *httpH.HealthHandler
	SectionTypeHandler *httpH.SectionTypeHandler
	DocumentHandler    *httpH.DocumentHandler
	SectionHandler     *httpH.SectionHandler
	GenerationHandler  *httpH.GenerationHandler
	ExportHandler      *httpH.ExportHandler
	RealtimeHandler    *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.SectionTypeHandler != nil {
			api.GET("/section-types", cfg.SectionTypeHandler.List)
		}

		// Documents
		if cfg.DocumentHandler != nil {
			api.POST("/documents", cfg.DocumentHandler.Create)
			api.GET("/documents", cfg.DocumentHandler.List)
			api.GET("/documents/:id", cfg.DocumentHandler.Get)
			api.DELETE("/documents/:id", cfg.DocumentHandler.Delete)
			api.PUT("/documents/:id/product", cfg.DocumentHandler.SetProduct)
			api.POST("/documents/:id/undo", cfg.DocumentHandler.Undo)
			api.POST("/documents/:id/redo", cfg.DocumentHandler.Redo)
			api.POST("/documents/:id/reset", cfg.DocumentHandler.Reset)
		}

		// Sections
		if cfg.SectionHandler != nil {
			api.POST("/documents/:id/sections", cfg.SectionHandler.Add)
			api.PATCH("/documents/:id/sections/:sid", cfg.SectionHandler.Update)
			api.DELETE("/documents/:id/sections/:sid", cfg.SectionHandler.Delete)
			api.POST("/documents/:id/sections/:sid/move", cfg.SectionHandler.Move)
		}

		// AI
		if cfg.GenerationHandler != nil {
			api.POST("/documents/:id/sections/:sid/ai/copy", cfg.GenerationHandler.Copy)
			api.POST("/documents/:id/sections/:sid/ai/image", cfg.GenerationHandler.Image)
			api.POST("/documents/:id/sections/:sid/ai/gallery", cfg.GenerationHandler.Gallery)
		}

		// Preview / export
		if cfg.ExportHandler != nil {
			api.GET("/documents/:id/preview", cfg.ExportHandler.Preview)
			api.GET("/documents/:id/export.png", cfg.ExportHandler.ExportPNG)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/documents/:id/events", cfg.RealtimeHandler.DocumentEvents)
		}
	}

	return r
}
