package app

import (
	"strings"
	"time"

	"github.com/yungbote/detailpage-backend/internal/data/db"
	"github.com/yungbote/detailpage-backend/internal/export"
	"github.com/yungbote/detailpage-backend/internal/observability"
	"github.com/yungbote/detailpage-backend/internal/platform/envutil"
	"github.com/yungbote/detailpage-backend/internal/platform/gcp"
	"github.com/yungbote/detailpage-backend/internal/platform/gemini"
	"github.com/yungbote/detailpage-backend/internal/realtime/bus"
	"github.com/yungbote/detailpage-backend/internal/services"
)

type Config struct {
	Port                string
	LogMode             string
	DefaultSectionsPath string
	AllowedOrigins      []string
	SessionTTL          time.Duration
	SaveDebounce        time.Duration
	ShutdownTimeout     time.Duration

	DB     db.Config
	GCS    gcp.Config
	Gemini gemini.Config
	Redis  bus.RedisConfig
	Export export.Config
	Otel   observability.OtelConfig
}

func LoadConfig() Config {
	return Config{
		Port:                envutil.String("PORT", "8080"),
		LogMode:             envutil.String("LOG_MODE", "development"),
		DefaultSectionsPath: envutil.String("DEFAULT_SECTIONS_PATH", ""),
		AllowedOrigins:      splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		SessionTTL:          envutil.Duration("SESSION_TTL", services.DefaultSessionTTL),
		SaveDebounce:        envutil.Duration("SAVE_DEBOUNCE", services.DefaultSaveDebounce),
		ShutdownTimeout:     envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		DB:     db.ConfigFromEnv(),
		GCS:    gcp.ConfigFromEnv(),
		Gemini: gemini.ConfigFromEnv(),
		Redis:  bus.RedisConfigFromEnv(),
		Export: export.ConfigFromEnv(),
		Otel:   observability.OtelConfigFromEnv(),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
