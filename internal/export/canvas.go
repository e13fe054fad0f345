package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

// CanvasRasterizer lays sections out with gg, without a browser. Layout
// units are CSS pixels; every coordinate is multiplied by scale when drawn.
type CanvasRasterizer struct {
	log    *logger.Logger
	fonts  *Fonts
	images *ImageLoader
	scale  float64
}

func NewCanvasRasterizer(log *logger.Logger, cfg Config) (*CanvasRasterizer, error) {
	fonts, err := LoadFonts(cfg.FontPath, cfg.BoldFontPath)
	if err != nil {
		return nil, err
	}
	scale := cfg.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	return &CanvasRasterizer{
		log:    log.With("component", "CanvasRasterizer"),
		fonts:  fonts,
		images: NewImageLoader(log, cfg.FetchTimeout, cfg.AllowPrivateHosts),
		scale:  scale,
	}, nil
}

func (r *CanvasRasterizer) Rasterize(ctx context.Context, sections []page.SectionData) ([]byte, error) {
	images := r.images.LoadAll(ctx, sections)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	faces := newFaceCache(r.fonts)
	defer faces.Close()

	measure := &layout{scale: r.scale, faces: faces, ruler: gg.NewContext(1, 1), images: images}
	height := measure.sections(sections)
	if err := checkPageSize(height, r.scale); err != nil {
		return nil, err
	}

	dc := gg.NewContext(int(math.Ceil(PageWidth*r.scale)), int(math.Ceil(height*r.scale)))
	dc.SetColor(color.White)
	dc.Clear()

	paint := &layout{scale: r.scale, faces: faces, ruler: measure.ruler, images: images, dc: dc}
	paint.sections(sections)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	r.log.Debug("Rasterized page", "sections", len(sections), "height", height, "images", len(images))
	return buf.Bytes(), nil
}

type align int

const (
	alignLeft align = iota
	alignCenter
)

type textStyle struct {
	size       float64
	bold       bool
	color      string
	align      align
	lineHeight float64
}

// layout walks the sections once to measure (dc == nil) and once to paint.
type layout struct {
	scale  float64
	faces  *faceCache
	ruler  *gg.Context
	images map[string]image.Image
	dc     *gg.Context
	y      float64
}

func (l *layout) painting() bool { return l.dc != nil }

func (l *layout) px(v float64) float64 { return v * l.scale }

func (l *layout) sections(sections []page.SectionData) float64 {
	l.y = 0
	for i, s := range sections {
		if i > 0 && s.Type != page.SectionCTA {
			l.y += 8
		}
		switch s.Type {
		case page.SectionIntro:
			l.intro(s)
		case page.SectionProblem:
			l.problem(s)
		case page.SectionSolution:
			l.solution(s)
		case page.SectionGallery:
			l.gallery(s)
		case page.SectionDetail:
			l.detail(s)
		case page.SectionTrust:
			l.trust(s)
		case page.SectionInfo:
			l.info(s)
		case page.SectionCTA:
			l.cta(s)
		}
	}
	return math.Max(l.y, 1)
}

func (l *layout) intro(s page.SectionData) {
	title := textStyle{size: 24, bold: true, color: "#ffffff", lineHeight: 1.25}
	sub := textStyle{size: 14, color: "#ffffffd9", lineHeight: 1.7}

	if img, ok := l.image(s.ImageURL); ok {
		const h = 384
		top := l.y
		l.cover(img, 0, top, PageWidth, h, 0)
		l.gradient(0, top, PageWidth, h, 0, 0, top+h, 0, top, "#000000b3", "#00000033", "#00000000")

		width := float64(PageWidth - 48)
		textH := l.measureText(s.Title, width, title) + 8 + l.measureText(s.SubContent, width, sub)
		y := top + h - 24 - textH
		y += l.text(s.Title, 24, y, width, title) + 8
		l.text(s.SubContent, 24, y, width, sub)
		l.y = top + h
		return
	}

	title.align, sub.align = alignCenter, alignCenter
	sub.color = "#ffffffcc"
	width := float64(PageWidth - 80)
	h := 40 + l.measureText(s.Title, width, title) + 12 + l.measureText(s.SubContent, width, sub) + 40
	top := l.y
	l.gradient(0, top, PageWidth, h, 0, 0, top, PageWidth, top+h, "#4f46e5", "#4338ca", "#6b21a8")
	y := top + 40
	y += l.text(s.Title, 40, y, width, title) + 12
	l.text(s.SubContent, 40, y, width, sub)
	l.y = top + h
}

func (l *layout) problem(s page.SectionData) {
	const pad, cardPad = 24, 20
	top := l.y
	title := textStyle{size: 20, bold: true, color: "#111827", align: alignCenter, lineHeight: 1.3}
	body := textStyle{size: 14, color: "#4b5563", lineHeight: 1.75}
	text := s.SubContent
	if text == "" {
		text = s.Content
	}

	inner := float64(PageWidth - 2*pad - 2*cardPad)
	img, hasImg := l.image(s.ImageURL)
	cardH := float64(2 * cardPad)
	if hasImg {
		cardH += fitHeight(img, inner) + 16
	}
	cardH += l.measureText(text, inner, body)
	h := 40 + l.measureText(s.Title, PageWidth-2*pad, title) + 24 + cardH + 40

	l.gradient(0, top, PageWidth, h, 0, 0, top, 0, top+h, "#fff1f2", "#ffffff")
	y := top + 40
	y += l.text(s.Title, pad, y, PageWidth-2*pad, title) + 24

	l.box(pad, y, PageWidth-2*pad, cardH, 16, "#ffffff", "#ffe4e6")
	cy := y + cardPad
	if hasImg {
		ih := fitHeight(img, inner)
		l.cover(img, pad+cardPad, cy, inner, ih, 12)
		cy += ih + 16
	}
	l.text(text, pad+cardPad, cy, inner, body)
	l.y = top + h
}

func (l *layout) solution(s page.SectionData) {
	const pad = 24
	width := float64(PageWidth - 2*pad)
	title := textStyle{size: 24, bold: true, color: "#111827", align: alignCenter, lineHeight: 1.25}
	itemTitle := textStyle{size: 14, bold: true, color: "#111827", lineHeight: 1.4}
	itemDesc := textStyle{size: 12, color: "#6b7280", lineHeight: 1.6}
	textW := width - 16 - 4 - 24 - 16 - 16

	top := l.y
	l.fill(0, top, PageWidth, l.solutionHeight(s, width, title, itemTitle, itemDesc, textW), 0, "#ffffff")

	y := top + 40
	badge := textStyle{size: 10, bold: true, color: "#4338ca", lineHeight: 1.5}
	bw := l.measureWidth("SOLUTION", badge) + 24
	l.fill((PageWidth-bw)/2, y, bw, 23, 11.5, "#e0e7ff")
	badge.align = alignCenter
	l.text("SOLUTION", (PageWidth-bw)/2, y+4, bw, badge)
	y += 23 + 12
	y += l.text(s.Title, pad, y, width, title) + 32

	if img, ok := l.image(s.ImageURL); ok {
		ih := fitHeight(img, width)
		l.cover(img, pad, y, width, ih, 16)
		y += ih + 24
	}
	for i, it := range s.Items {
		if i > 0 {
			y += 12
		}
		ch := math.Max(24, l.measureText(it.Title, textW, itemTitle)+4+l.measureText(it.Desc, textW, itemDesc)) + 32
		l.gradient(pad, y, width, ch, 12, pad, y, pad+width, y, "#f9fafb", "#ffffff")
		l.fill(pad, y, 4, ch, 0, "#6366f1")
		l.fill(pad+20, y+18, 24, 24, 8, "#e0e7ff")
		l.check(pad+20, y+18, 24, "#4f46e5")
		tx := float64(pad + 20 + 24 + 16)
		ty := y + 16
		ty += l.text(it.Title, tx, ty, textW, itemTitle) + 4
		l.text(it.Desc, tx, ty, textW, itemDesc)
		y += ch
	}
	l.y = y + 40
}

func (l *layout) solutionHeight(s page.SectionData, width float64, title, itemTitle, itemDesc textStyle, textW float64) float64 {
	h := 40 + 23 + 12 + l.measureText(s.Title, width, title) + 32
	if img, ok := l.image(s.ImageURL); ok {
		h += fitHeight(img, width) + 24
	}
	for i, it := range s.Items {
		if i > 0 {
			h += 12
		}
		h += math.Max(24, l.measureText(it.Title, textW, itemTitle)+4+l.measureText(it.Desc, textW, itemDesc)) + 32
	}
	return h + 40
}

func (l *layout) gallery(s page.SectionData) {
	const pad, gap = 16, 8
	width := float64(PageWidth - 2*pad)
	title := textStyle{size: 20, bold: true, color: "#111827", align: alignCenter, lineHeight: 1.3}
	sub := textStyle{size: 14, color: "#6b7280", align: alignCenter, lineHeight: 1.5}

	var imgs []image.Image
	for _, u := range s.ImageURLs {
		if img, ok := l.image(u); ok {
			imgs = append(imgs, img)
		}
	}
	cell := (width - gap) / 2
	rows := (len(imgs) + 1) / 2
	gridH := float64(rows)*cell + float64(max(rows-1, 0))*gap

	top := l.y
	headH := l.measureText(s.Title, width, title) + 4 + l.measureText(s.SubContent, width, sub)
	h := 40 + headH + 24 + gridH + 40
	l.fill(0, top, PageWidth, h, 0, "#f9fafb")

	y := top + 40
	y += l.text(s.Title, pad, y, width, title) + 4
	y += l.text(s.SubContent, pad, y, width, sub) + 24
	for i, img := range imgs {
		x := float64(pad) + float64(i%2)*(cell+gap)
		cy := y + float64(i/2)*(cell+gap)
		l.cover(img, x, cy, cell, cell, 16)
	}
	l.y = top + h
}

func (l *layout) detail(s page.SectionData) {
	const pad = 24
	width := float64(PageWidth - 2*pad)
	title := textStyle{size: 20, bold: true, color: "#111827", lineHeight: 1.3}
	sub := textStyle{size: 14, bold: true, color: "#4f46e5", lineHeight: 1.5}
	body := textStyle{size: 14, color: "#374151", lineHeight: 1.75}

	img, hasImg := l.image(s.ImageURL)
	h := 40 + l.measureText(s.Title, width, title)
	if s.SubContent != "" {
		h += 8 + l.measureText(s.SubContent, width, sub)
	}
	h += 20
	if hasImg {
		h += fitHeight(img, width) + 20
	}
	h += l.measureText(s.Content, width, body) + 32 + 6 + 40

	top := l.y
	l.fill(0, top, PageWidth, h, 0, "#ffffff")
	y := top + 40
	y += l.text(s.Title, pad, y, width, title)
	if s.SubContent != "" {
		y += 8
		y += l.text(s.SubContent, pad, y, width, sub)
	}
	y += 20
	if hasImg {
		ih := fitHeight(img, width)
		l.cover(img, pad, y, width, ih, 16)
		y += ih + 20
	}
	y += l.text(s.Content, pad, y, width, body) + 32

	half := (width - 6 - 24) / 2
	l.fill(pad, y+2.5, half, 1, 0, "#e5e7eb")
	l.circle(pad+half+12+3, y+3, 3, "#d1d5db")
	l.fill(pad+half+24+6, y+2.5, half, 1, 0, "#e5e7eb")
	l.y = top + h
}

func (l *layout) trust(s page.SectionData) {
	const pad, cardPad = 24, 16
	width := float64(PageWidth - 2*pad)
	inner := width - 2*cardPad
	title := textStyle{size: 20, bold: true, color: "#111827", align: alignCenter, lineHeight: 1.3}
	name := textStyle{size: 14, color: "#1f2937", lineHeight: 1.4}
	badge := textStyle{size: 10, bold: true, color: "#059669", lineHeight: 1.4}
	review := textStyle{size: 14, color: "#374151", lineHeight: 1.6}
	avatar := textStyle{size: 12, bold: true, color: "#4f46e5", align: alignCenter, lineHeight: 1}
	score := textStyle{size: 14, bold: true, color: "#374151", lineHeight: 1.4}
	count := textStyle{size: 12, color: "#9ca3af", lineHeight: 1.4}

	quote := func(it page.SectionItem) string { return "“" + it.Desc + "”" }
	cardH := func(it page.SectionItem) float64 {
		return 2*cardPad + 32 + 8 + 12 + 8 + l.measureText(quote(it), inner, review)
	}
	cert, hasCert := l.image(s.ImageURL)

	h := 40 + l.measureText(s.Title, width, title) + 12 + 36 + 24
	for i, it := range s.Items {
		if i > 0 {
			h += 12
		}
		h += cardH(it)
	}
	if hasCert {
		h += 24 + math.Min(80, fitHeight(cert, width))
	}
	h += 40

	top := l.y
	l.gradient(0, top, PageWidth, h, 0, 0, top, 0, top+h, "#f9fafb", "#ffffff")
	y := top + 40
	y += l.text(s.Title, pad, y, width, title) + 12

	scoreText, countText := "4.9", "("+strconv.Itoa(len(s.Items))+"건)"
	pillW := 16 + 5*18 + 6 + l.measureWidth(scoreText, score) + 8 + l.measureWidth(countText, count) + 16
	px := (PageWidth - pillW) / 2
	l.box(px, y, pillW, 36, 18, "#ffffff", "#f3f4f6")
	x := px + 16
	for i := 0; i < 5; i++ {
		l.star(x+8, y+18, 8, "#fbbf24")
		x += 18
	}
	x += 6
	l.text(scoreText, x, y+8, 40, score)
	x += l.measureWidth(scoreText, score) + 8
	l.text(countText, x, y+10, 80, count)
	y += 36 + 24

	for i, it := range s.Items {
		if i > 0 {
			y += 12
		}
		ch := cardH(it)
		l.box(pad, y, width, ch, 16, "#ffffff", "#f3f4f6")
		cx, cy := float64(pad+cardPad), y+cardPad
		l.circle(cx+16, cy+16, 16, "#e0e7ff")
		l.text(firstRune(it.Title), cx, cy+10, 32, avatar)
		l.text(it.Title, cx+40, cy+6, inner-40-60, name)
		bw := l.measureWidth("구매 인증", badge)
		l.text("구매 인증", cx+inner-bw, cy+9, bw+1, badge)
		cy += 32 + 8
		for j := 0; j < 5; j++ {
			l.star(cx+6+float64(j)*14, cy+6, 6, "#fbbf24")
		}
		cy += 12 + 8
		l.text(quote(it), cx, cy, inner, review)
		y += ch
	}
	if hasCert {
		y += 24
		ih := math.Min(80, fitHeight(cert, width))
		b := cert.Bounds()
		iw := ih * float64(b.Dx()) / float64(b.Dy())
		l.cover(grayscale(cert), (PageWidth-iw)/2, y, iw, ih, 0)
	}
	l.y = top + h
}

func (l *layout) info(s page.SectionData) {
	const pad, cardPad = 24, 16
	width := float64(PageWidth - 2*pad)
	title := textStyle{size: 18, bold: true, color: "#111827", lineHeight: 1.4}
	mark := textStyle{size: 14, bold: true, color: "#4f46e5", lineHeight: 1.4}
	question := textStyle{size: 14, color: "#1f2937", lineHeight: 1.4}
	answerMark := textStyle{size: 14, bold: true, color: "#059669", lineHeight: 1.4}
	answer := textStyle{size: 12, color: "#6b7280", lineHeight: 1.6}

	qW := width - 2*cardPad - 22
	aW := width - 2*cardPad - 24 - 22
	cardH := func(it page.SectionItem) float64 {
		return 2*cardPad + l.measureText(it.Title, qW, question) + 8 + math.Max(20, l.measureText(it.Desc, aW, answer))
	}

	h := 40 + l.measureText(s.Title, width, title) + 24
	for i, it := range s.Items {
		if i > 0 {
			h += 12
		}
		h += cardH(it)
	}
	h += 40

	top := l.y
	l.fill(0, top, PageWidth, h, 0, "#ffffff")
	y := top + 40
	y += l.text(s.Title, pad, y, width, title) + 24
	for i, it := range s.Items {
		if i > 0 {
			y += 12
		}
		ch := cardH(it)
		l.box(pad, y, width, ch, 12, "#ffffff", "#e5e7eb")
		cx, cy := float64(pad+cardPad), y+cardPad
		l.text("Q.", cx, cy, 22, mark)
		cy += l.text(it.Title, cx+22, cy, qW, question) + 8
		l.text("A.", cx+24, cy, 22, answerMark)
		l.text(it.Desc, cx+24+22, cy+1, aW, answer)
		y += ch
	}
	l.y = top + h
}

func (l *layout) cta(s page.SectionData) {
	const pad = 20
	width := float64(PageWidth - 2*pad)
	button := textStyle{size: 16, bold: true, color: "#ffffff", align: alignCenter, lineHeight: 1.375}
	sub := textStyle{size: 12, color: "#9ca3af", align: alignCenter, lineHeight: 1.5}

	img, hasImg := l.image(s.ImageURL)
	buttonH := 32 + l.measureText(s.Title, width-48, button)
	h := float64(2 * pad)
	if hasImg {
		h += fitHeight(img, width) + 16
	}
	h += buttonH
	if s.SubContent != "" {
		h += 12 + l.measureText(s.SubContent, width, sub)
	}

	top := l.y
	l.fill(0, top, PageWidth, h, 0, "#ffffff")
	y := top + pad
	if hasImg {
		ih := fitHeight(img, width)
		l.cover(img, pad, y, width, ih, 16)
		y += ih + 16
	}
	l.gradient(pad, y, width, buttonH, 16, pad, y, pad+width, y, "#4f46e5", "#9333ea")
	l.text(s.Title, pad+24, y+16, width-48, button)
	y += buttonH
	if s.SubContent != "" {
		l.text(s.SubContent, pad, y+12, width, sub)
	}
	l.y = top + h
}

// ---- drawing primitives ----

func (l *layout) image(ref string) (image.Image, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	img, ok := l.images[ref]
	return img, ok && img.Bounds().Dx() > 0 && img.Bounds().Dy() > 0
}

// maxImageHeight caps a single drawn image in CSS pixels; taller images
// are cover-cropped.
const maxImageHeight = 1200

func fitHeight(img image.Image, width float64) float64 {
	b := img.Bounds()
	return math.Min(width*float64(b.Dy())/float64(b.Dx()), maxImageHeight)
}

func (l *layout) fill(x, y, w, h, radius float64, hex string) {
	if !l.painting() {
		return
	}
	l.path(x, y, w, h, radius)
	l.dc.SetColor(parseHex(hex))
	l.dc.Fill()
}

func (l *layout) box(x, y, w, h, radius float64, fillHex, borderHex string) {
	if !l.painting() {
		return
	}
	l.fill(x, y, w, h, radius, fillHex)
	l.path(x+0.5, y+0.5, w-1, h-1, radius)
	l.dc.SetColor(parseHex(borderHex))
	l.dc.SetLineWidth(l.px(1))
	l.dc.Stroke()
}

func (l *layout) path(x, y, w, h, radius float64) {
	if radius > 0 {
		l.dc.DrawRoundedRectangle(l.px(x), l.px(y), l.px(w), l.px(h), l.px(radius))
		return
	}
	l.dc.DrawRectangle(l.px(x), l.px(y), l.px(w), l.px(h))
}

// gradient fills a rectangle with evenly spaced color stops along
// (x0,y0)-(x1,y1).
func (l *layout) gradient(x, y, w, h, radius, x0, y0, x1, y1 float64, stops ...string) {
	if !l.painting() {
		return
	}
	g := gg.NewLinearGradient(l.px(x0), l.px(y0), l.px(x1), l.px(y1))
	for i, hex := range stops {
		offset := 0.0
		if len(stops) > 1 {
			offset = float64(i) / float64(len(stops)-1)
		}
		g.AddColorStop(offset, parseHex(hex))
	}
	l.path(x, y, w, h, radius)
	l.dc.SetFillStyle(g)
	l.dc.Fill()
}

func (l *layout) circle(cx, cy, r float64, hex string) {
	if !l.painting() {
		return
	}
	l.dc.DrawCircle(l.px(cx), l.px(cy), l.px(r))
	l.dc.SetColor(parseHex(hex))
	l.dc.Fill()
}

func (l *layout) star(cx, cy, r float64, hex string) {
	if !l.painting() {
		return
	}
	inner := r * 0.45
	for i := 0; i < 10; i++ {
		rad := r
		if i%2 == 1 {
			rad = inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		x, y := l.px(cx+rad*math.Cos(a)), l.px(cy+rad*math.Sin(a))
		if i == 0 {
			l.dc.MoveTo(x, y)
		} else {
			l.dc.LineTo(x, y)
		}
	}
	l.dc.ClosePath()
	l.dc.SetColor(parseHex(hex))
	l.dc.Fill()
}

func (l *layout) check(x, y, size float64, hex string) {
	if !l.painting() {
		return
	}
	l.dc.MoveTo(l.px(x+size*0.28), l.px(y+size*0.52))
	l.dc.LineTo(l.px(x+size*0.44), l.px(y+size*0.68))
	l.dc.LineTo(l.px(x+size*0.74), l.px(y+size*0.34))
	l.dc.SetColor(parseHex(hex))
	l.dc.SetLineWidth(l.px(2))
	l.dc.SetLineCapRound()
	l.dc.Stroke()
}

func (l *layout) cover(img image.Image, x, y, w, h, radius float64) {
	if !l.painting() {
		return
	}
	scaled := cover(img, int(math.Round(l.px(w))), int(math.Round(l.px(h))))
	l.dc.Push()
	if radius > 0 {
		l.path(x, y, w, h, radius)
		l.dc.Clip()
	}
	l.dc.DrawImage(scaled, int(math.Round(l.px(x))), int(math.Round(l.px(y))))
	l.dc.ResetClip()
	l.dc.Pop()
}

// ---- text ----

func (l *layout) useFace(st textStyle) *gg.Context {
	f := l.faces.face(l.px(st.size), st.bold)
	l.ruler.SetFontFace(f)
	if l.painting() {
		l.dc.SetFontFace(f)
	}
	return l.ruler
}

func (l *layout) measureWidth(s string, st textStyle) float64 {
	w, _ := l.useFace(st).MeasureString(s)
	return w / l.scale
}

func (l *layout) measureText(s string, width float64, st textStyle) float64 {
	lines := l.wrap(s, width, st)
	return float64(len(lines)) * st.size * st.lineHeight
}

// text draws s wrapped to width starting at top y and returns the height it
// occupies.
func (l *layout) text(s string, x, y, width float64, st textStyle) float64 {
	lines := l.wrap(s, width, st)
	lh := st.size * st.lineHeight
	if !l.painting() || len(lines) == 0 {
		return float64(len(lines)) * lh
	}
	ruler := l.useFace(st)
	m := l.faces.face(l.px(st.size), st.bold).Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	l.dc.SetColor(parseHex(st.color))
	for i, line := range lines {
		top := l.px(y + float64(i)*lh)
		baseline := top + (l.px(lh)-(ascent+descent))/2 + ascent
		lx := l.px(x)
		if st.align == alignCenter {
			w, _ := ruler.MeasureString(line)
			lx += (l.px(width) - w) / 2
		}
		l.dc.DrawString(line, lx, baseline)
	}
	return float64(len(lines)) * lh
}

// wrap breaks s into lines no wider than width. Words longer than a line are
// split by rune.
func (l *layout) wrap(s string, width float64, st textStyle) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	ruler := l.useFace(st)
	limit := l.px(width)
	fits := func(t string) bool {
		w, _ := ruler.MeasureString(t)
		return w <= limit
	}

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if fits(candidate) {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			for !fits(word) && utf8.RuneCountInString(word) > 1 {
				cut := breakPoint(word, fits)
				lines = append(lines, word[:cut])
				word = word[cut:]
			}
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

// breakPoint returns the byte offset of the longest rune prefix of word that
// fits, never less than one rune.
func breakPoint(word string, fits func(string) bool) int {
	cut := 0
	for i, r := range word {
		next := i + utf8.RuneLen(r)
		if cut > 0 && !fits(word[:next]) {
			break
		}
		cut = next
	}
	return cut
}

func firstRune(s string) string {
	r, size := utf8.DecodeRuneInString(strings.TrimSpace(s))
	if r == utf8.RuneError || size == 0 {
		return ""
	}
	return string(r)
}

// parseHex reads #rgb, #rrggbb and #rrggbbaa.
func parseHex(hex string) color.NRGBA {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	c := color.NRGBA{A: 255}
	if len(hex) != 6 && len(hex) != 8 {
		return c
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return c
	}
	if len(hex) == 8 {
		c.A = uint8(v)
		v >>= 8
	}
	c.R, c.G, c.B = uint8(v>>16), uint8(v>>8), uint8(v)
	return c
}
