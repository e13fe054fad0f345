// Package pagebuilder holds the editable state of one detail page: the
// product metadata, the ordered sections and a bounded linear undo/redo
// history of full snapshots.
package pagebuilder

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
)

// MaxHistory is the number of snapshots kept; older entries are dropped.
const MaxHistory = 50

// NewSectionTitle is the placeholder title of a freshly added section.
const NewSectionTitle = "새로운 섹션"

var (
	ErrSectionNotFound    = errors.New("section not found")
	ErrLastSection        = errors.New("cannot delete the last remaining section")
	ErrInvalidSectionType = errors.New("invalid section type")
	ErrInvalidDirection   = errors.New("direction must be up or down")
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	default:
		return "", ErrInvalidDirection
	}
}

// Holder is safe for concurrent use.
type Holder struct {
	mu       sync.Mutex
	product  page.ProductInfo
	sections []page.SectionData
	history  []page.Snapshot
	cursor   int

	newID func() string
}

// Option configures a Holder.
type Option func(*Holder)

// WithIDFunc replaces the generator used for new section ids.
func WithIDFunc(fn func() string) Option {
	return func(h *Holder) {
		if fn != nil {
			h.newID = fn
		}
	}
}

func New(initial []page.SectionData, opts ...Option) *Holder {
	h := &Holder{newID: timeIDs()}
	for _, opt := range opts {
		opt(h)
	}
	h.resetLocked(page.ProductInfo{}, initial)
	return h
}

// timeIDs yields millisecond timestamps, bumped so that two sections added in
// the same millisecond still get distinct ids.
func timeIDs() func() string {
	var mu sync.Mutex
	var last int64
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n := time.Now().UnixMilli()
		if n <= last {
			n = last + 1
		}
		last = n
		return strconv.FormatInt(n, 10)
	}
}

// Restore replaces the whole state with a persisted one and starts a fresh
// history at it. An empty section list falls back to defaults.
func (h *Holder) Restore(product page.ProductInfo, sections, defaults []page.SectionData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(sections) == 0 {
		sections = defaults
	}
	h.resetLocked(product, sections)
}

// Reset drops all edits and history and starts over from defaults with an
// empty product.
func (h *Holder) Reset(defaults []page.SectionData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resetLocked(page.ProductInfo{}, defaults)
}

func (h *Holder) resetLocked(product page.ProductInfo, sections []page.SectionData) {
	h.product = product
	h.sections = page.CloneSections(sections)
	if h.sections == nil {
		h.sections = []page.SectionData{}
	}
	h.history = []page.Snapshot{{Product: product, Sections: page.CloneSections(h.sections)}}
	h.cursor = 0
}

func (h *Holder) Snapshot() page.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Holder) snapshotLocked() page.Snapshot {
	return page.Snapshot{Product: h.product, Sections: page.CloneSections(h.sections)}
}

func (h *Holder) Product() page.ProductInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.product
}

func (h *Holder) Section(id string) (page.SectionData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := h.indexLocked(id)
	if idx < 0 {
		return page.SectionData{}, false
	}
	return h.sections[idx].Clone(), true
}

func (h *Holder) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

func (h *Holder) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.history)-1
}

// HistoryLen is the number of snapshots currently retained.
func (h *Holder) HistoryLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

func (h *Holder) SetProduct(p page.ProductInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.product = p
	h.pushLocked()
}

func (h *Holder) UpdateSection(id string, patch page.SectionPatch) (page.SectionData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := h.indexLocked(id)
	if idx < 0 {
		return page.SectionData{}, ErrSectionNotFound
	}
	h.sections[idx] = patch.Apply(h.sections[idx])
	h.pushLocked()
	return h.sections[idx].Clone(), nil
}

// AddSection inserts a blank section of the given kind in front of the first
// cta section, or at the end when there is none.
func (h *Holder) AddSection(t page.SectionType) (page.SectionData, error) {
	if !t.Valid() {
		return page.SectionData{}, ErrInvalidSectionType
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s := page.SectionData{
		ID:    h.newID(),
		Type:  t,
		Title: NewSectionTitle,
	}
	if t.HasItems() {
		s.Items = []page.SectionItem{{}}
	}
	if t == page.SectionGallery {
		s.ImageURLs = make([]string, page.MaxGalleryImages)
	}

	at := len(h.sections)
	for i, existing := range h.sections {
		if existing.Type == page.SectionCTA {
			at = i
			break
		}
	}
	next := make([]page.SectionData, 0, len(h.sections)+1)
	next = append(next, h.sections[:at]...)
	next = append(next, s)
	next = append(next, h.sections[at:]...)
	h.sections = next
	h.pushLocked()
	return s.Clone(), nil
}

func (h *Holder) DeleteSection(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := h.indexLocked(id)
	if idx < 0 {
		return ErrSectionNotFound
	}
	if len(h.sections) <= 1 {
		return ErrLastSection
	}
	next := make([]page.SectionData, 0, len(h.sections)-1)
	next = append(next, h.sections[:idx]...)
	next = append(next, h.sections[idx+1:]...)
	h.sections = next
	h.pushLocked()
	return nil
}

// MoveSection swaps a section with its neighbour. Moving past either end is
// a no-op and reports false.
func (h *Holder) MoveSection(id string, dir Direction) (bool, error) {
	if dir != DirectionUp && dir != DirectionDown {
		return false, ErrInvalidDirection
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := h.indexLocked(id)
	if idx < 0 {
		return false, ErrSectionNotFound
	}
	swap := idx + 1
	if dir == DirectionUp {
		swap = idx - 1
	}
	if swap < 0 || swap >= len(h.sections) {
		return false, nil
	}
	h.sections[idx], h.sections[swap] = h.sections[swap], h.sections[idx]
	h.pushLocked()
	return true, nil
}

func (h *Holder) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	h.loadLocked(h.history[h.cursor])
	return true
}

func (h *Holder) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor >= len(h.history)-1 {
		return false
	}
	h.cursor++
	h.loadLocked(h.history[h.cursor])
	return true
}

func (h *Holder) loadLocked(s page.Snapshot) {
	h.product = s.Product
	h.sections = page.CloneSections(s.Sections)
}

// pushLocked records the current state: entries after the cursor are
// discarded and only the newest MaxHistory entries are kept.
func (h *Holder) pushLocked() {
	h.history = append(h.history[:h.cursor+1], h.snapshotLocked())
	if over := len(h.history) - MaxHistory; over > 0 {
		trimmed := make([]page.Snapshot, MaxHistory)
		copy(trimmed, h.history[over:])
		h.history = trimmed
	}
	h.cursor = len(h.history) - 1
}

func (h *Holder) indexLocked(id string) int {
	for i := range h.sections {
		if h.sections[i].ID == id {
			return i
		}
	}
	return -1
}

// StripInlineImages blanks every data: image reference so the result can be
// persisted without embedded payloads.
func StripInlineImages(sections []page.SectionData) []page.SectionData {
	out := page.CloneSections(sections)
	for i := range out {
		if isInline(out[i].ImageURL) {
			out[i].ImageURL = ""
		}
		for j, u := range out[i].ImageURLs {
			if isInline(u) {
				out[i].ImageURLs[j] = ""
			}
		}
	}
	return out
}

func isInline(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}
