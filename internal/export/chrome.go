package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	cdpage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/preview"
)

// waitForImages resolves once every <img> has loaded or failed.
const waitForImages = `Promise.all(Array.from(document.images).map(img =>
  img.complete ? true : new Promise(resolve => { img.onload = img.onerror = () => resolve(true); })
)).then(() => true)`

const pageHeightScript = `document.documentElement.scrollHeight`

// ChromeRasterizer screenshots the stripped preview in headless Chrome.
// Images are fetched and inlined before the page is loaded, so the browser
// itself makes no network requests.
type ChromeRasterizer struct {
	log      *logger.Logger
	images   *ImageLoader
	execPath string
	scale    float64
	timeout  time.Duration
}

func NewChromeRasterizer(log *logger.Logger, cfg Config) *ChromeRasterizer {
	scale := cfg.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromeRasterizer{
		log:      log.With("component", "ChromeRasterizer"),
		images:   NewImageLoader(log, cfg.FetchTimeout, cfg.AllowPrivateHosts),
		execPath: cfg.ChromePath,
		scale:    scale,
		timeout:  timeout,
	}
}

func (r *ChromeRasterizer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(PageWidth, 800),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	return opts
}

func (r *ChromeRasterizer) Rasterize(ctx context.Context, sections []page.SectionData) ([]byte, error) {
	sections = r.images.Inline(ctx, sections)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var html bytes.Buffer
	if err := preview.Render(&html, sections, preview.Options{Chrome: false}); err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		r.log.Debug(fmt.Sprintf(format, args...))
	}))
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	var png []byte
	var loaded bool
	var height float64
	err := chromedp.Run(runCtx,
		chromedp.EmulateViewport(PageWidth, 800, chromedp.EmulateScale(r.scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := cdpage.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return cdpage.SetDocumentContent(tree.Frame.ID, html.String()).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(waitForImages, &loaded, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.Evaluate(pageHeightScript, &height),
		chromedp.ActionFunc(func(context.Context) error {
			return checkPageSize(height, r.scale)
		}),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		if errors.Is(err, ErrPageTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("chrome rasterize: %w", err)
	}
	r.log.Debug("Rasterized page", "sections", len(sections), "bytes", len(png))
	return png, nil
}
