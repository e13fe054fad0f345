package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/data/repos"
	"github.com/yungbote/detailpage-backend/internal/data/repos/testutil"
	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/pagebuilder"
	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
	"github.com/yungbote/detailpage-backend/internal/platform/gcp"
	"github.com/yungbote/detailpage-backend/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (r *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingEmitter) events(event realtime.SSEEvent) []realtime.SSEMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.SSEMessage
	for _, m := range r.msgs {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

func testDefaults() []page.SectionData {
	return []page.SectionData{
		{ID: "1", Type: page.SectionIntro, Title: "intro"},
		{ID: "2", Type: page.SectionDetail, Title: "detail"},
		{ID: "3", Type: page.SectionCTA, Title: "buy"},
	}
}

type editorFixture struct {
	svc     EditorService
	docs    repos.DocumentRepo
	emitter *recordingEmitter
}

func newEditorFixture(t *testing.T, debounce time.Duration) editorFixture {
	t.Helper()
	db := testutil.DB(t)
	docs := repos.NewDocumentRepo(db, testutil.Logger(t))
	em := &recordingEmitter{}
	svc := NewEditorService(testutil.Logger(t), docs, em, EditorConfig{
		SaveDebounce: debounce,
		Defaults:     testDefaults(),
	})
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return editorFixture{svc: svc, docs: docs, emitter: em}
}

func (f editorFixture) stored(t *testing.T, id uuid.UUID) (*page.Document, []page.SectionData) {
	t.Helper()
	doc, err := f.docs.GetByID(dbctx.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc == nil {
		t.Fatalf("document %s not stored", id)
	}
	sections, err := doc.DecodeSections()
	if err != nil {
		t.Fatalf("DecodeSections: %v", err)
	}
	return doc, sections
}

func TestEditorCreateAndGet(t *testing.T) {
	f := newEditorFixture(t, time.Hour)
	ctx := context.Background()

	state, err := f.svc.Create(ctx, page.ProductInfo{Name: "pillow"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(state.Sections) != 3 || state.Product.Name != "pillow" {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.CanUndo || state.CanRedo {
		t.Fatalf("fresh document should have no history")
	}

	got, err := f.svc.Get(ctx, state.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != state.ID {
		t.Fatalf("Get: id got=%s want=%s", got.ID, state.ID)
	}

	if _, err := f.svc.Get(ctx, uuid.New()); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("Get (missing): expected ErrDocumentNotFound, got %v", err)
	}
}

func TestEditorMutationsEmitAndUndo(t *testing.T) {
	f := newEditorFixture(t, time.Hour)
	ctx := context.Background()
	state, _ := f.svc.Create(ctx, page.ProductInfo{})

	title := "new title"
	state, err := f.svc.UpdateSection(ctx, state.ID, "2", page.SectionPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if state.Sections[1].Title != title || !state.CanUndo {
		t.Fatalf("unexpected state after update: %+v", state)
	}

	added, state, err := f.svc.AddSection(ctx, state.ID, page.SectionTrust)
	if err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if state.Sections[2].ID != added.ID {
		t.Fatalf("added section should sit before cta: %+v", state.Sections)
	}

	if state, err = f.svc.Undo(ctx, state.ID); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(state.Sections) != 3 || !state.CanRedo {
		t.Fatalf("unexpected state after undo: %+v", state)
	}

	changed := f.emitter.events(realtime.SSEEventDocumentChanged)
	if len(changed) != 3 {
		t.Fatalf("DocumentChanged events: got=%d want=3", len(changed))
	}
	last := changed[len(changed)-1]
	if last.Channel != realtime.DocumentChannel(state.ID) {
		t.Fatalf("channel: got=%q", last.Channel)
	}
	data := last.Data.(map[string]any)
	if data["can_redo"] != true || data["section_count"] != 3 {
		t.Fatalf("unexpected event data: %+v", data)
	}
}

func TestEditorErrorsDoNotEmit(t *testing.T) {
	f := newEditorFixture(t, time.Hour)
	ctx := context.Background()
	state, _ := f.svc.Create(ctx, page.ProductInfo{})

	if _, err := f.svc.DeleteSection(ctx, state.ID, "nope"); !errors.Is(err, pagebuilder.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
	if _, err := f.svc.MoveSection(ctx, state.ID, "1", pagebuilder.DirectionUp); err != nil {
		t.Fatalf("boundary move should not fail: %v", err)
	}
	if _, err := f.svc.Redo(ctx, state.ID); err != nil {
		t.Fatalf("Redo at end should not fail: %v", err)
	}
	if n := len(f.emitter.events(realtime.SSEEventDocumentChanged)); n != 0 {
		t.Fatalf("no-op and failed mutations emitted %d events", n)
	}
}

func TestEditorDebouncedSaveStripsInlineImages(t *testing.T) {
	f := newEditorFixture(t, 20*time.Millisecond)
	ctx := context.Background()
	state, _ := f.svc.Create(ctx, page.ProductInfo{})

	inline := "data:image/png;base64,AAAA"
	remote := "https://example.com/a.png"
	if _, err := f.svc.UpdateSection(ctx, state.ID, "1", page.SectionPatch{ImageURL: &inline}); err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if _, err := f.svc.UpdateSection(ctx, state.ID, "2", page.SectionPatch{ImageURL: &remote}); err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if _, err := f.svc.SetProduct(ctx, state.ID, page.ProductInfo{Name: "saved"}); err != nil {
		t.Fatalf("SetProduct: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		doc, sections := f.stored(t, state.ID)
		if doc.ProductName == "saved" {
			if sections[0].ImageURL != "" {
				t.Fatalf("inline image persisted: %q", sections[0].ImageURL)
			}
			if sections[1].ImageURL != remote {
				t.Fatalf("remote image lost: %q", sections[1].ImageURL)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced save did not land")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// the live session still holds the inline image
	live, err := f.svc.Get(ctx, state.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if live.Sections[0].ImageURL != inline {
		t.Fatalf("session lost inline image: %q", live.Sections[0].ImageURL)
	}
}

type countingRepo struct {
	repos.DocumentRepo
	saves atomic.Int64
}

func (r *countingRepo) Save(dbc dbctx.Context, doc *page.Document) error {
	r.saves.Add(1)
	return r.DocumentRepo.Save(dbc, doc)
}

func TestEditorCoalescesRapidMutations(t *testing.T) {
	const debounce = 100 * time.Millisecond
	docs := &countingRepo{DocumentRepo: repos.NewDocumentRepo(testutil.DB(t), testutil.Logger(t))}
	svc := NewEditorService(testutil.Logger(t), docs, nil, EditorConfig{SaveDebounce: debounce, Defaults: testDefaults()})
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	ctx := context.Background()

	state, err := svc.Create(ctx, page.ProductInfo{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 10; i++ {
		title := fmt.Sprintf("title %d", i)
		if _, err := svc.UpdateSection(ctx, state.ID, "1", page.SectionPatch{Title: &title}); err != nil {
			t.Fatalf("UpdateSection %d: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := docs.saves.Load(); n != 0 {
		t.Fatalf("saves during burst: got=%d want=0", n)
	}

	deadline := time.Now().Add(2 * time.Second)
	for docs.saves.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("debounced save did not land")
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(2 * debounce)
	if n := docs.saves.Load(); n != 1 {
		t.Fatalf("saves: got=%d want=1", n)
	}

	doc, err := docs.GetByID(dbctx.Background(), state.ID)
	if err != nil || doc == nil {
		t.Fatalf("GetByID: doc=%v err=%v", doc, err)
	}
	sections, err := doc.DecodeSections()
	if err != nil {
		t.Fatalf("DecodeSections: %v", err)
	}
	if sections[0].Title != "title 9" {
		t.Fatalf("stored title: got=%q want=%q", sections[0].Title, "title 9")
	}
}

func TestEditorFlushAndReset(t *testing.T) {
	f := newEditorFixture(t, time.Hour)
	ctx := context.Background()
	state, _ := f.svc.Create(ctx, page.ProductInfo{Name: "p"})

	if _, err := f.svc.DeleteSection(ctx, state.ID, "2"); err != nil {
		t.Fatalf("DeleteSection: %v", err)
	}
	if _, sections := f.stored(t, state.ID); len(sections) != 3 {
		t.Fatalf("save should still be pending, stored=%d", len(sections))
	}
	if err := f.svc.Flush(ctx, state.ID); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, sections := f.stored(t, state.ID); len(sections) != 2 {
		t.Fatalf("after flush: stored=%d want=2", len(sections))
	}

	state, err := f.svc.Reset(ctx, state.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if state.CanUndo || state.Product.Name != "" || len(state.Sections) != 3 {
		t.Fatalf("unexpected state after reset: %+v", state)
	}
	if err := f.svc.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	doc, sections := f.stored(t, state.ID)
	if doc.ProductName != "" || len(sections) != 3 {
		t.Fatalf("reset not persisted: product=%q sections=%d", doc.ProductName, len(sections))
	}
}

func TestEditorReloadsFromStorage(t *testing.T) {
	db := testutil.DB(t)
	docs := repos.NewDocumentRepo(db, testutil.Logger(t))
	ctx := context.Background()

	first := NewEditorService(testutil.Logger(t), docs, nil, EditorConfig{SaveDebounce: time.Hour, Defaults: testDefaults()})
	state, _ := first.Create(ctx, page.ProductInfo{Name: "kept"})
	if _, err := first.MoveSection(ctx, state.ID, "1", pagebuilder.DirectionDown); err != nil {
		t.Fatalf("MoveSection: %v", err)
	}
	if err := first.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := NewEditorService(testutil.Logger(t), docs, nil, EditorConfig{SaveDebounce: time.Hour, Defaults: testDefaults()})
	got, err := second.Get(ctx, state.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Product.Name != "kept" || got.Sections[0].ID != "2" || got.Sections[1].ID != "1" {
		t.Fatalf("unexpected reload: %+v", got)
	}
	if got.CanUndo {
		t.Fatalf("reloaded session should start with fresh history")
	}
}

func TestEditorListAndDelete(t *testing.T) {
	f := newEditorFixture(t, time.Hour)
	ctx := context.Background()
	a, _ := f.svc.Create(ctx, page.ProductInfo{Name: "a"})
	b, _ := f.svc.Create(ctx, page.ProductInfo{Name: "b"})

	if _, err := f.svc.SetProduct(ctx, a.ID, page.ProductInfo{Name: "a2"}); err != nil {
		t.Fatalf("SetProduct: %v", err)
	}

	list, err := f.svc.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List: got=%d want=2", len(list))
	}
	if list[0].ID != a.ID || list[0].ProductName != "a2" || list[0].SectionCount != 3 {
		t.Fatalf("List should show the unsaved edit first: %+v", list)
	}

	if err := f.svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, b.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("Get after delete: expected ErrDocumentNotFound, got %v", err)
	}
	if err := f.svc.Delete(ctx, b.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("Delete twice: expected ErrDocumentNotFound, got %v", err)
	}
}

func TestEditorDeletePurgesDocumentAssets(t *testing.T) {
	bucket := &fakeBucket{}
	docs := repos.NewDocumentRepo(testutil.DB(t), testutil.Logger(t))
	svc := NewEditorService(testutil.Logger(t), docs, nil, EditorConfig{
		SaveDebounce: time.Hour,
		Defaults:     testDefaults(),
		Assets:       NewAssetService(testutil.Logger(t), bucket),
	})
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	ctx := context.Background()

	gone, _ := svc.Create(ctx, page.ProductInfo{Name: "gone"})
	kept, _ := svc.Create(ctx, page.ProductInfo{Name: "kept"})
	put := func(category gcp.Category, key string) {
		if err := bucket.UploadFile(dbctx.Background(), category, key, strings.NewReader("x"), ""); err != nil {
			t.Fatalf("UploadFile: %v", err)
		}
	}
	put(gcp.CategoryImage, gone.ID.String()+"/a.png")
	put(gcp.CategoryImage, gone.ID.String()+"/b.png")
	put(gcp.CategoryExport, gone.ID.String()+"/1.png")
	put(gcp.CategoryImage, kept.ID.String()+"/c.png")
	put(gcp.CategoryExport, kept.ID.String()+"/2.png")

	if err := svc.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if left := bucket.keys(""); len(left) != 2 {
		t.Fatalf("objects left: got=%v want 2 for the kept document", left)
	}
	for _, name := range bucket.keys("") {
		if !strings.Contains(name, kept.ID.String()) {
			t.Fatalf("unexpected object left: %s", name)
		}
	}
}
