package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SQLITE_PATH", "")
	cfg := ConfigFromEnv()
	if cfg.Driver != DriverSQLite {
		t.Fatalf("driver: got=%q want=%q", cfg.Driver, DriverSQLite)
	}
	if cfg.SQLitePath != "detailpage.db" {
		t.Fatalf("sqlite path: got=%q", cfg.SQLitePath)
	}
}

func TestNewServiceRejectsUnknownDriver(t *testing.T) {
	if _, err := NewService(Config{Driver: "mysql"}, logger.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSQLiteMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	svc, err := NewService(Config{Driver: DriverSQLite, SQLitePath: path}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if !svc.DB().Migrator().HasTable(&page.Document{}) {
		t.Fatal("document table missing after migrate")
	}
}
