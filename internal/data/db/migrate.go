package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&page.Document{},
	)
}
