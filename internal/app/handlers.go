package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/detailpage-backend/internal/http/handlers"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	SectionTypes *httpH.SectionTypeHandler
	Documents    *httpH.DocumentHandler
	Sections     *httpH.SectionHandler
	Generation   *httpH.GenerationHandler
	Export       *httpH.ExportHandler
	Realtime     *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, theDB *gorm.DB, svc Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := theDB.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:       httpH.NewHealthHandler(pinger),
		SectionTypes: httpH.NewSectionTypeHandler(),
		Documents:    httpH.NewDocumentHandler(svc.Editor),
		Sections:     httpH.NewSectionHandler(svc.Editor),
		Generation:   httpH.NewGenerationHandler(svc.Generation),
		Export:       httpH.NewExportHandler(svc.Export),
		Realtime:     httpH.NewRealtimeHandler(log, hub, svc.Editor),
	}
}
