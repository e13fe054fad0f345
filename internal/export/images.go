package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

const (
	maxImageBytes = 20 << 20
	fetchParallel = 4

	// Decoded images are held as full bitmaps, so both the pixel count and
	// the aspect ratio are bounded before decoding.
	maxImagePixels = 24_000_000
	maxImageAspect = 8
)

var (
	ErrUnsupportedImageRef = errors.New("unsupported image reference")
	ErrImageTooLarge       = errors.New("image dimensions out of range")
	ErrBlockedAddress      = errors.New("image host resolves to a non-public address")
)

// ImageLoader resolves section image references into decoded images.
type ImageLoader struct {
	client *http.Client
	log    *logger.Logger
}

// NewImageLoader refuses to connect to loopback, private and link-local
// addresses unless allowPrivate is set (local storage emulators).
func NewImageLoader(log *logger.Logger, timeout time.Duration, allowPrivate bool) *ImageLoader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		dialer.Control = publicOnly
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &ImageLoader{
		client: &http.Client{Timeout: timeout, Transport: transport},
		log:    log.With("component", "ImageLoader"),
	}
}

// publicOnly runs after DNS resolution for every connection, redirects
// included.
func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

func isPublicIP(ip net.IP) bool {
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	case sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

// Load fetches an http(s) URL or decodes a data: URL.
func (l *ImageLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	raw, _, err := l.loadRaw(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// loadRaw returns the encoded bytes of ref and their format after checking
// the image header against the size limits.
func (l *ImageLoader) loadRaw(ctx context.Context, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	var raw []byte
	var err error
	switch {
	case strings.HasPrefix(ref, "data:"):
		raw, err = decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		raw, err = l.fetch(ctx, ref)
	default:
		return nil, "", ErrUnsupportedImageRef
	}
	if err != nil {
		return nil, "", err
	}
	format, err := checkDimensions(raw)
	if err != nil {
		return nil, "", err
	}
	return raw, format, nil
}

func checkDimensions(raw []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image header: %w", err)
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 || w*h > maxImagePixels || w > h*maxImageAspect || h > w*maxImageAspect {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, w, h)
	}
	return format, nil
}

// Inline replaces every image reference with a checked data: URL so a
// renderer that loads the page never touches the network. References that
// fail to load become empty.
func (l *ImageLoader) Inline(ctx context.Context, sections []page.SectionData) []page.SectionData {
	refs := imageRefs(sections)
	inlined := make(map[string]string, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallel)
	for _, ref := range refs {
		g.Go(func() error {
			raw, format, err := l.loadRaw(gctx, ref)
			if err != nil {
				l.log.Warn("Skipping export image", "ref", shortRef(ref), "error", err)
				return nil
			}
			mu.Lock()
			inlined[ref] = "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(raw)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resolve := func(ref string) string { return inlined[strings.TrimSpace(ref)] }
	out := page.CloneSections(sections)
	for i := range out {
		if out[i].ImageURL != "" {
			out[i].ImageURL = resolve(out[i].ImageURL)
		}
		for j, ref := range out[i].ImageURLs {
			if ref != "" {
				out[i].ImageURLs[j] = resolve(ref)
			}
		}
	}
	return out
}

// LoadAll resolves every image the sections reference. Failures are logged
// and left out of the result.
func (l *ImageLoader) LoadAll(ctx context.Context, sections []page.SectionData) map[string]image.Image {
	refs := imageRefs(sections)
	out := make(map[string]image.Image, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallel)
	for _, ref := range refs {
		g.Go(func() error {
			img, err := l.Load(gctx, ref)
			if err != nil {
				l.log.Warn("Skipping export image", "ref", shortRef(ref), "error", err)
				return nil
			}
			mu.Lock()
			out[ref] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (l *ImageLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(raw) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return raw, nil
}

func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		return raw, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return []byte(s), nil
}

func imageRefs(sections []page.SectionData) []string {
	seen := map[string]bool{}
	var out []string
	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || seen[ref] {
			return
		}
		seen[ref] = true
		out = append(out, ref)
	}
	for _, s := range sections {
		add(s.ImageURL)
		for _, u := range s.ImageURLs {
			add(u)
		}
	}
	return out
}

func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		if i := strings.IndexByte(ref, ','); i > 0 {
			return ref[:i] + ",…"
		}
	}
	return ref
}

// cover scales img to fill w×h, cropping the overflow around the center.
func cover(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return dst
	}
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}
	src := b
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := b.Min.X + (sw-cw)/2
		src = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := sw * h / w
		y0 := b.Min.Y + (sh-ch)/2
		src = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

// grayscale returns a gray copy of img for certification badges.
func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
