package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/detailpage-backend/internal/data/repos/page"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

type DocumentRepo = page.DocumentRepo

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return page.NewDocumentRepo(db, baseLog)
}
