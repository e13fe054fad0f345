package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/platform/envutil"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

const (
	RendererCanvas = "canvas"
	RendererChrome = "chrome"

	// PageWidth is the layout width in CSS pixels; Scale multiplies it for
	// the output bitmap.
	PageWidth    = 375
	DefaultScale = 2

	// MaxPageHeight bounds the layout height in CSS pixels and
	// maxCanvasPixels the output bitmap, whatever the scale.
	MaxPageHeight   = 20000
	maxCanvasPixels = 64_000_000
)

var ErrPageTooLarge = errors.New("page is too large to export")

// Rasterizer turns an ordered section list into a PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, sections []page.SectionData) ([]byte, error)
}

type Config struct {
	Renderer     string
	Scale        float64
	FontPath     string
	BoldFontPath string
	ChromePath   string
	FetchTimeout time.Duration
	Timeout      time.Duration

	// AllowPrivateHosts lets image fetches reach loopback and private
	// addresses, for local storage emulators.
	AllowPrivateHosts bool
}

func ConfigFromEnv() Config {
	return Config{
		Renderer:     strings.ToLower(envutil.String("EXPORT_RENDERER", RendererCanvas)),
		Scale:        float64(envutil.Int("EXPORT_SCALE", DefaultScale)),
		FontPath:     envutil.String("EXPORT_FONT_PATH", ""),
		BoldFontPath: envutil.String("EXPORT_BOLD_FONT_PATH", ""),
		ChromePath:   envutil.String("EXPORT_CHROME_PATH", ""),
		FetchTimeout: envutil.Duration("EXPORT_FETCH_TIMEOUT", 10*time.Second),
		Timeout:      envutil.Duration("EXPORT_TIMEOUT", 60*time.Second),

		AllowPrivateHosts: envutil.Bool("EXPORT_ALLOW_PRIVATE_HOSTS", false),
	}
}

// New builds the rasterizer selected by cfg.Renderer.
func New(log *logger.Logger, cfg Config) (Rasterizer, error) {
	switch cfg.Renderer {
	case "", RendererCanvas:
		return NewCanvasRasterizer(log, cfg)
	case RendererChrome:
		return NewChromeRasterizer(log, cfg), nil
	default:
		return nil, fmt.Errorf("unknown export renderer %q", cfg.Renderer)
	}
}

// checkPageSize rejects pages whose bitmap would exceed the export limits.
func checkPageSize(height, scale float64) error {
	w, h := PageWidth*scale, height*scale
	if height > MaxPageHeight || w*h > maxCanvasPixels {
		return fmt.Errorf("%w: %.0fx%.0f px", ErrPageTooLarge, w, h)
	}
	return nil
}

// FileName is the download name for an export taken at now.
func FileName(now time.Time) string {
	return now.UTC().Format("detail-page-2006-01-02.png")
}
