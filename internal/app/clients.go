package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/detailpage-backend/internal/export"
	"github.com/yungbote/detailpage-backend/internal/platform/gcp"
	"github.com/yungbote/detailpage-backend/internal/platform/gemini"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime/bus"
)

// Clients holds the external integrations. A nil field means the
// integration is not configured and the features behind it degrade.
type Clients struct {
	SSEBus     bus.Bus
	Bucket     gcp.BucketService
	AI         gemini.Client
	Rasterizer export.Rasterizer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(ctx, log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		out.SSEBus = b
	} else {
		log.Info("REDIS_ADDR not set; SSE events stay on this instance")
	}

	// Gcs
	if cfg.GCS.Enabled() {
		bucket, err := gcp.NewBucketService(ctx, log, cfg.GCS)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init bucket client: %w", err)
		}
		out.Bucket = bucket
	} else {
		log.Info("GCS_BUCKET_NAME not set; generated images stay inline and uploads are disabled")
	}

	// Gemini
	ai, err := gemini.NewClient(ctx, log, cfg.Gemini)
	switch {
	case errors.Is(err, gemini.ErrNotConfigured):
		log.Warn("GEMINI_API_KEY not set; AI generation is disabled")
	case err != nil:
		out.Close(log)
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	default:
		out.AI = ai
	}

	// Export
	raster, err := export.New(log, cfg.Export)
	if err != nil {
		out.Close(log)
		return Clients{}, fmt.Errorf("init rasterizer: %w", err)
	}
	out.Rasterizer = raster

	return out, nil
}

func (c Clients) Close(log *logger.Logger) {
	if c.SSEBus != nil {
		if err := c.SSEBus.Close(); err != nil {
			log.Warn("SSE bus close failed", "error", err)
		}
	}
}
