package app

import (
	"fmt"

	"github.com/yungbote/detailpage-backend/internal/data/repos"
	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/pagebuilder"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
	"github.com/yungbote/detailpage-backend/internal/services"
)

type Services struct {
	Editor     services.EditorService
	Generation services.GenerationService
	Export     services.ExportService
}

func wireServices(log *logger.Logger, cfg Config, docs repos.DocumentRepo, clients Clients, emitter realtime.Emitter) (Services, error) {
	log.Info("Wiring services...")

	defaults, err := loadDefaults(cfg.DefaultSectionsPath)
	if err != nil {
		return Services{}, err
	}

	editor := services.NewEditorService(log, docs, emitter, services.EditorConfig{
		SessionTTL:   cfg.SessionTTL,
		SaveDebounce: cfg.SaveDebounce,
		Defaults:     defaults,
		Assets:       services.NewAssetService(log, clients.Bucket),
	})
	return Services{
		Editor:     editor,
		Generation: services.NewGenerationService(log, clients.AI, editor, clients.Bucket, emitter),
		Export:     services.NewExportService(log, editor, clients.Rasterizer, clients.Bucket, emitter),
	}, nil
}

func loadDefaults(path string) ([]page.SectionData, error) {
	if path == "" {
		return pagebuilder.DefaultSections(), nil
	}
	sections, err := pagebuilder.LoadSections(path)
	if err != nil {
		return nil, fmt.Errorf("load default sections: %w", err)
	}
	return sections, nil
}
