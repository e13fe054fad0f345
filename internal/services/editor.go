package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/detailpage-backend/internal/data/repos"
	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/pagebuilder"
	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
)

var ErrDocumentNotFound = errors.New("document not found")

const (
	DefaultSessionTTL   = 30 * time.Minute
	DefaultSaveDebounce = 500 * time.Millisecond
)

// DocumentState is the client-facing view of a live session.
type DocumentState struct {
	ID        uuid.UUID          `json:"id"`
	Product   page.ProductInfo   `json:"product"`
	Sections  []page.SectionData `json:"sections"`
	CanUndo   bool               `json:"can_undo"`
	CanRedo   bool               `json:"can_redo"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type DocumentSummary struct {
	ID           uuid.UUID `json:"id"`
	ProductName  string    `json:"product_name"`
	SectionCount int       `json:"section_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type EditorService interface {
	Create(ctx context.Context, product page.ProductInfo) (*DocumentState, error)
	Get(ctx context.Context, id uuid.UUID) (*DocumentState, error)
	List(ctx context.Context, limit int) ([]DocumentSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error

	SetProduct(ctx context.Context, id uuid.UUID, product page.ProductInfo) (*DocumentState, error)
	UpdateSection(ctx context.Context, id uuid.UUID, sectionID string, patch page.SectionPatch) (*DocumentState, error)
	AddSection(ctx context.Context, id uuid.UUID, t page.SectionType) (page.SectionData, *DocumentState, error)
	DeleteSection(ctx context.Context, id uuid.UUID, sectionID string) (*DocumentState, error)
	MoveSection(ctx context.Context, id uuid.UUID, sectionID string, dir pagebuilder.Direction) (*DocumentState, error)
	Undo(ctx context.Context, id uuid.UUID) (*DocumentState, error)
	Redo(ctx context.Context, id uuid.UUID) (*DocumentState, error)
	Reset(ctx context.Context, id uuid.UUID) (*DocumentState, error)

	// Snapshot is a deep copy of the current session state.
	Snapshot(ctx context.Context, id uuid.UUID) (page.Snapshot, error)

	Flush(ctx context.Context, id uuid.UUID) error
	Close(ctx context.Context) error
}

type EditorConfig struct {
	SessionTTL   time.Duration
	SaveDebounce time.Duration
	Defaults     []page.SectionData

	// Assets, when set, purges a document's bucket objects on Delete.
	Assets AssetService
}

type session struct {
	id        uuid.UUID
	holder    *pagebuilder.Holder
	createdAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
	dirty     bool
	closed    bool
	timer     *time.Timer

	// serializes writes of this session
	saveMu sync.Mutex
}

type editorService struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	emitter  realtime.Emitter
	sessions *gocache.Cache
	ttl      time.Duration
	debounce time.Duration
	defaults []page.SectionData
	assets   AssetService

	loadMu sync.Mutex
}

func NewEditorService(log *logger.Logger, docs repos.DocumentRepo, emitter realtime.Emitter, cfg EditorConfig) EditorService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.SaveDebounce <= 0 {
		cfg.SaveDebounce = DefaultSaveDebounce
	}
	if len(cfg.Defaults) == 0 {
		cfg.Defaults = pagebuilder.DefaultSections()
	}
	if emitter == nil {
		emitter = realtime.EmitterFunc(func(context.Context, realtime.SSEMessage) {})
	}
	s := &editorService{
		log:      log.With("service", "EditorService"),
		docs:     docs,
		emitter:  emitter,
		sessions: gocache.New(cfg.SessionTTL, cfg.SessionTTL/2),
		ttl:      cfg.SessionTTL,
		debounce: cfg.SaveDebounce,
		defaults: page.CloneSections(cfg.Defaults),
		assets:   cfg.Assets,
	}
	s.sessions.OnEvicted(func(key string, v interface{}) {
		sess, ok := v.(*session)
		if !ok {
			return
		}
		if err := s.flushSession(context.Background(), sess); err != nil {
			s.log.Warn("Flush on session eviction failed", "document_id", key, "error", err)
		}
		s.log.Debug("Editor session evicted", "document_id", key)
	})
	return s
}

func (s *editorService) Create(ctx context.Context, product page.ProductInfo) (*DocumentState, error) {
	doc := &page.Document{}
	doc.SetProduct(product)
	if err := doc.EncodeSections(pagebuilder.StripInlineImages(s.defaults)); err != nil {
		return nil, err
	}
	if _, err := s.docs.Create(dbctx.Context{Ctx: ctx}, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	holder := pagebuilder.New(nil)
	holder.Restore(product, s.defaults, s.defaults)
	sess := &session{
		id:        doc.ID,
		holder:    holder,
		createdAt: doc.CreatedAt,
		updatedAt: doc.UpdatedAt,
	}
	s.sessions.SetDefault(doc.ID.String(), sess)
	s.log.Info("Document created", "document_id", doc.ID)
	return s.stateOf(sess), nil
}

func (s *editorService) Get(ctx context.Context, id uuid.UUID) (*DocumentState, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.stateOf(sess), nil
}

func (s *editorService) Snapshot(ctx context.Context, id uuid.UUID) (page.Snapshot, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return page.Snapshot{}, err
	}
	return sess.holder.Snapshot(), nil
}

// List reads from storage and overlays sessions that are still live so
// unsaved edits show up.
func (s *editorService) List(ctx context.Context, limit int) ([]DocumentSummary, error) {
	docs, err := s.docs.List(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		sum := DocumentSummary{ID: doc.ID, ProductName: doc.ProductName, UpdatedAt: doc.UpdatedAt}
		if v, ok := s.sessions.Get(doc.ID.String()); ok {
			sess := v.(*session)
			snap := sess.holder.Snapshot()
			sum.ProductName = snap.Product.Name
			sum.SectionCount = len(snap.Sections)
			sess.mu.Lock()
			sum.UpdatedAt = sess.updatedAt
			sess.mu.Unlock()
		} else if sections, err := doc.DecodeSections(); err == nil {
			sum.SectionCount = len(sections)
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *editorService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.docs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if v, ok := s.sessions.Get(id.String()); ok {
		sess := v.(*session)
		sess.mu.Lock()
		sess.closed = true
		sess.dirty = false
		if sess.timer != nil {
			sess.timer.Stop()
		}
		sess.mu.Unlock()
		s.sessions.Delete(id.String())
	}
	if err := s.docs.Delete(dbctx.Context{Ctx: ctx}, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if s.assets != nil {
		if err := s.assets.PurgeDocument(ctx, id); err != nil {
			s.log.Warn("Document assets not purged", "document_id", id, "error", err)
		}
	}
	s.log.Info("Document deleted", "document_id", id)
	return nil
}

func (s *editorService) SetProduct(ctx context.Context, id uuid.UUID, product page.ProductInfo) (*DocumentState, error) {
	return s.mutate(ctx, id, "set_product", func(h *pagebuilder.Holder) (bool, error) {
		h.SetProduct(product)
		return true, nil
	})
}

func (s *editorService) UpdateSection(ctx context.Context, id uuid.UUID, sectionID string, patch page.SectionPatch) (*DocumentState, error) {
	return s.mutate(ctx, id, "update_section", func(h *pagebuilder.Holder) (bool, error) {
		_, err := h.UpdateSection(sectionID, patch)
		return err == nil, err
	})
}

func (s *editorService) AddSection(ctx context.Context, id uuid.UUID, t page.SectionType) (page.SectionData, *DocumentState, error) {
	var added page.SectionData
	state, err := s.mutate(ctx, id, "add_section", func(h *pagebuilder.Holder) (bool, error) {
		sec, err := h.AddSection(t)
		added = sec
		return err == nil, err
	})
	return added, state, err
}

func (s *editorService) DeleteSection(ctx context.Context, id uuid.UUID, sectionID string) (*DocumentState, error) {
	return s.mutate(ctx, id, "delete_section", func(h *pagebuilder.Holder) (bool, error) {
		err := h.DeleteSection(sectionID)
		return err == nil, err
	})
}

func (s *editorService) MoveSection(ctx context.Context, id uuid.UUID, sectionID string, dir pagebuilder.Direction) (*DocumentState, error) {
	return s.mutate(ctx, id, "move_section", func(h *pagebuilder.Holder) (bool, error) {
		return h.MoveSection(sectionID, dir)
	})
}

func (s *editorService) Undo(ctx context.Context, id uuid.UUID) (*DocumentState, error) {
	return s.mutate(ctx, id, "undo", func(h *pagebuilder.Holder) (bool, error) {
		return h.Undo(), nil
	})
}

func (s *editorService) Redo(ctx context.Context, id uuid.UUID) (*DocumentState, error) {
	return s.mutate(ctx, id, "redo", func(h *pagebuilder.Holder) (bool, error) {
		return h.Redo(), nil
	})
}

func (s *editorService) Reset(ctx context.Context, id uuid.UUID) (*DocumentState, error) {
	return s.mutate(ctx, id, "reset", func(h *pagebuilder.Holder) (bool, error) {
		h.Reset(s.defaults)
		return true, nil
	})
}

// mutate runs fn on the session holder. When fn reports a change the
// session is marked for a debounced save and a DocumentChanged event goes
// out.
func (s *editorService) mutate(ctx context.Context, id uuid.UUID, op string, fn func(h *pagebuilder.Holder) (bool, error)) (*DocumentState, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := fn(sess.holder)
	if err != nil {
		return nil, err
	}
	if changed {
		s.scheduleSave(sess)
	}
	state := s.stateOf(sess)
	if changed {
		s.emitter.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.DocumentChannel(id),
			Event:   realtime.SSEEventDocumentChanged,
			Data: map[string]any{
				"document_id":   id,
				"op":            op,
				"can_undo":      state.CanUndo,
				"can_redo":      state.CanRedo,
				"section_count": len(state.Sections),
			},
		})
	}
	return state, nil
}

func (s *editorService) session(ctx context.Context, id uuid.UUID) (*session, error) {
	key := id.String()
	if v, ok := s.sessions.Get(key); ok {
		// sliding expiry
		s.sessions.SetDefault(key, v)
		return v.(*session), nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if v, ok := s.sessions.Get(key); ok {
		return v.(*session), nil
	}

	doc, err := s.docs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	sections, err := doc.DecodeSections()
	if err != nil {
		return nil, err
	}
	holder := pagebuilder.New(nil)
	holder.Restore(doc.Product(), sections, s.defaults)
	sess := &session{
		id:        doc.ID,
		holder:    holder,
		createdAt: doc.CreatedAt,
		updatedAt: doc.UpdatedAt,
	}
	s.sessions.SetDefault(key, sess)
	s.log.Debug("Editor session loaded", "document_id", id, "sections", len(sections))
	return sess, nil
}

func (s *editorService) stateOf(sess *session) *DocumentState {
	snap := sess.holder.Snapshot()
	sess.mu.Lock()
	updated := sess.updatedAt
	sess.mu.Unlock()
	return &DocumentState{
		ID:        sess.id,
		Product:   snap.Product,
		Sections:  snap.Sections,
		CanUndo:   sess.holder.CanUndo(),
		CanRedo:   sess.holder.CanRedo(),
		CreatedAt: sess.createdAt,
		UpdatedAt: updated,
	}
}

func (s *editorService) scheduleSave(sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.dirty = true
	sess.updatedAt = time.Now().UTC()
	if sess.timer == nil {
		sess.timer = time.AfterFunc(s.debounce, func() {
			if err := s.flushSession(context.Background(), sess); err != nil {
				s.log.Warn("Debounced save failed", "document_id", sess.id, "error", err)
			}
		})
		return
	}
	sess.timer.Reset(s.debounce)
}

// flushSession writes the stripped snapshot when the session has unsaved
// changes. On failure the session stays dirty so a later flush retries.
func (s *editorService) flushSession(ctx context.Context, sess *session) error {
	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	sess.mu.Lock()
	if !sess.dirty || sess.closed {
		sess.mu.Unlock()
		return nil
	}
	sess.dirty = false
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.mu.Unlock()

	snap := sess.holder.Snapshot()
	doc := &page.Document{ID: sess.id}
	doc.SetProduct(snap.Product)
	if err := doc.EncodeSections(pagebuilder.StripInlineImages(snap.Sections)); err != nil {
		return err
	}
	if err := s.docs.Save(dbctx.Context{Ctx: ctx}, doc); err != nil {
		sess.mu.Lock()
		sess.dirty = true
		sess.mu.Unlock()
		return fmt.Errorf("save document %s: %w", sess.id, err)
	}
	s.log.Debug("Document saved", "document_id", sess.id, "sections", len(snap.Sections))
	return nil
}

func (s *editorService) Flush(ctx context.Context, id uuid.UUID) error {
	v, ok := s.sessions.Get(id.String())
	if !ok {
		return nil
	}
	return s.flushSession(ctx, v.(*session))
}

// Close flushes every pending save.
func (s *editorService) Close(ctx context.Context) error {
	var errs []error
	for key, item := range s.sessions.Items() {
		sess, ok := item.Object.(*session)
		if !ok {
			continue
		}
		if err := s.flushSession(ctx, sess); err != nil {
			s.log.Warn("Flush on shutdown failed", "document_id", key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
