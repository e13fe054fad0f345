package pagebuilder

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
)

func seqIDs() Option {
	n := 100
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	})
}

func sampleSections() []page.SectionData {
	return []page.SectionData{
		{ID: "a", Type: page.SectionIntro, Title: "A"},
		{ID: "b", Type: page.SectionProblem, Title: "B"},
		{ID: "c", Type: page.SectionCTA, Title: "C"},
	}
}

func ids(s page.Snapshot) []string {
	out := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		out[i] = sec.ID
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestNewStartsWithSingleHistoryEntry(t *testing.T) {
	h := New(sampleSections())
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("fresh holder should not undo or redo")
	}
	if h.HistoryLen() != 1 {
		t.Fatalf("history len: got=%d want=1", h.HistoryLen())
	}
	if got := h.Snapshot().Product; got != (page.ProductInfo{}) {
		t.Fatalf("expected empty product, got %+v", got)
	}
}

func TestHolderDoesNotAliasInitialSections(t *testing.T) {
	initial := sampleSections()
	h := New(initial)
	initial[0].Title = "mutated"
	if got, _ := h.Section("a"); got.Title != "A" {
		t.Fatalf("holder aliased caller slice: %q", got.Title)
	}
	snap := h.Snapshot()
	snap.Sections[0].Title = "mutated"
	if got, _ := h.Section("a"); got.Title != "A" {
		t.Fatalf("snapshot aliased holder state: %q", got.Title)
	}
}

func TestUpdateSectionMergesPatch(t *testing.T) {
	h := New([]page.SectionData{{ID: "a", Type: page.SectionDetail, Title: "T", Content: "C", SubContent: "S"}})
	got, err := h.UpdateSection("a", page.SectionPatch{Title: strPtr("T2")})
	if err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if got.Title != "T2" || got.Content != "C" || got.SubContent != "S" {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if !h.CanUndo() {
		t.Fatal("update should be undoable")
	}
}

func TestUpdateSectionUnknownIDDoesNotPush(t *testing.T) {
	h := New(sampleSections())
	_, err := h.UpdateSection("zzz", page.SectionPatch{Title: strPtr("x")})
	if !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
	if h.HistoryLen() != 1 {
		t.Fatalf("failed update pushed history: len=%d", h.HistoryLen())
	}
}

func TestAddSectionInsertsBeforeCTA(t *testing.T) {
	h := New(sampleSections(), seqIDs())
	s, err := h.AddSection(page.SectionTrust)
	if err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	want := []string{"a", "b", s.ID, "c"}
	got := ids(h.Snapshot())
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("order: got=%v want=%v", got, want)
	}
	if s.Title != NewSectionTitle {
		t.Fatalf("title: got=%q", s.Title)
	}
	if len(s.Items) != 1 || s.Items[0] != (page.SectionItem{}) {
		t.Fatalf("trust section should be seeded with one empty item: %+v", s.Items)
	}
}

func TestAddSectionAppendsWithoutCTA(t *testing.T) {
	h := New([]page.SectionData{{ID: "a", Type: page.SectionIntro}}, seqIDs())
	s, err := h.AddSection(page.SectionGallery)
	if err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	got := ids(h.Snapshot())
	if len(got) != 2 || got[1] != s.ID {
		t.Fatalf("expected append, got %v", got)
	}
	if len(s.ImageURLs) != page.MaxGalleryImages {
		t.Fatalf("gallery should be seeded with %d slots: %v", page.MaxGalleryImages, s.ImageURLs)
	}
	if s.Items != nil {
		t.Fatalf("gallery should have no items: %+v", s.Items)
	}
}

func TestAddSectionRejectsUnknownType(t *testing.T) {
	h := New(sampleSections())
	if _, err := h.AddSection("footer"); !errors.Is(err, ErrInvalidSectionType) {
		t.Fatalf("expected ErrInvalidSectionType, got %v", err)
	}
}

func TestDefaultIDsAreUnique(t *testing.T) {
	h := New(sampleSections())
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		s, err := h.AddSection(page.SectionDetail)
		if err != nil {
			t.Fatalf("AddSection: %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate id %q", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestDeleteSection(t *testing.T) {
	h := New(sampleSections())
	if err := h.DeleteSection("b"); err != nil {
		t.Fatalf("DeleteSection: %v", err)
	}
	if got := ids(h.Snapshot()); fmt.Sprint(got) != "[a c]" {
		t.Fatalf("after delete: %v", got)
	}
	if err := h.DeleteSection("b"); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestDeleteLastSectionRefused(t *testing.T) {
	h := New([]page.SectionData{{ID: "only", Type: page.SectionCTA}})
	if err := h.DeleteSection("only"); !errors.Is(err, ErrLastSection) {
		t.Fatalf("expected ErrLastSection, got %v", err)
	}
	if h.HistoryLen() != 1 {
		t.Fatal("refused delete must not push history")
	}
}

func TestMoveSection(t *testing.T) {
	h := New(sampleSections())

	moved, err := h.MoveSection("a", DirectionUp)
	if err != nil || moved {
		t.Fatalf("moving first up should be a no-op: moved=%v err=%v", moved, err)
	}
	moved, err = h.MoveSection("c", DirectionDown)
	if err != nil || moved {
		t.Fatalf("moving last down should be a no-op: moved=%v err=%v", moved, err)
	}
	if h.HistoryLen() != 1 {
		t.Fatal("boundary moves must not push history")
	}

	moved, err = h.MoveSection("a", DirectionDown)
	if err != nil || !moved {
		t.Fatalf("MoveSection: moved=%v err=%v", moved, err)
	}
	if got := ids(h.Snapshot()); fmt.Sprint(got) != "[b a c]" {
		t.Fatalf("after move: %v", got)
	}

	if _, err := h.MoveSection("zzz", DirectionUp); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
	if _, err := h.MoveSection("a", "sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestUndoRedo(t *testing.T) {
	h := New(sampleSections())
	h.SetProduct(page.ProductInfo{Name: "pillow"})
	if _, err := h.UpdateSection("a", page.SectionPatch{Title: strPtr("A2")}); err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}

	if !h.Undo() {
		t.Fatal("undo 1 failed")
	}
	if got, _ := h.Section("a"); got.Title != "A" {
		t.Fatalf("after undo 1: title=%q", got.Title)
	}
	if h.Product().Name != "pillow" {
		t.Fatalf("after undo 1: product=%+v", h.Product())
	}

	if !h.Undo() {
		t.Fatal("undo 2 failed")
	}
	if h.Product().Name != "" {
		t.Fatalf("after undo 2: product=%+v", h.Product())
	}
	if h.Undo() {
		t.Fatal("undo past the start should fail")
	}

	if !h.Redo() || !h.Redo() {
		t.Fatal("redo failed")
	}
	if got, _ := h.Section("a"); got.Title != "A2" {
		t.Fatalf("after redo: title=%q", got.Title)
	}
	if h.Redo() {
		t.Fatal("redo past the end should fail")
	}
}

func TestPushAfterUndoTruncatesFuture(t *testing.T) {
	h := New(sampleSections())
	h.SetProduct(page.ProductInfo{Name: "one"})
	h.SetProduct(page.ProductInfo{Name: "two"})
	h.Undo()
	h.SetProduct(page.ProductInfo{Name: "three"})

	if h.CanRedo() {
		t.Fatal("redo should be gone after a new edit")
	}
	if h.HistoryLen() != 3 {
		t.Fatalf("history len: got=%d want=3", h.HistoryLen())
	}
	h.Undo()
	if h.Product().Name != "one" {
		t.Fatalf("expected 'one' after undo, got %q", h.Product().Name)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	h := New(sampleSections())
	for i := 0; i < MaxHistory+25; i++ {
		h.SetProduct(page.ProductInfo{Name: fmt.Sprintf("p%d", i)})
	}
	if h.HistoryLen() != MaxHistory {
		t.Fatalf("history len: got=%d want=%d", h.HistoryLen(), MaxHistory)
	}
	undos := 0
	for h.Undo() {
		undos++
	}
	if undos != MaxHistory-1 {
		t.Fatalf("undo steps: got=%d want=%d", undos, MaxHistory-1)
	}
	// the oldest retained entry is the 26th edit (p25)
	if got := h.Product().Name; got != "p25" {
		t.Fatalf("oldest retained product: got=%q want=p25", got)
	}
}

func TestResetClearsHistory(t *testing.T) {
	h := New(sampleSections())
	h.SetProduct(page.ProductInfo{Name: "x"})
	_ = h.DeleteSection("a")

	defaults := []page.SectionData{{ID: "d", Type: page.SectionIntro}}
	h.Reset(defaults)

	if h.CanUndo() || h.CanRedo() {
		t.Fatal("reset should clear history")
	}
	snap := h.Snapshot()
	if snap.Product != (page.ProductInfo{}) || len(snap.Sections) != 1 || snap.Sections[0].ID != "d" {
		t.Fatalf("unexpected state after reset: %+v", snap)
	}
}

func TestRestoreFallsBackToDefaults(t *testing.T) {
	h := New(sampleSections())
	h.Restore(page.ProductInfo{Name: "saved"}, nil, []page.SectionData{{ID: "d", Type: page.SectionIntro}})
	snap := h.Snapshot()
	if snap.Product.Name != "saved" || len(snap.Sections) != 1 || snap.Sections[0].ID != "d" {
		t.Fatalf("unexpected restore: %+v", snap)
	}
	if h.CanUndo() {
		t.Fatal("restore should start a fresh history")
	}
}

func TestStripInlineImages(t *testing.T) {
	in := []page.SectionData{
		{ID: "a", ImageURL: "data:image/png;base64,AAA"},
		{ID: "b", ImageURL: "https://example.com/x.png", ImageURLs: []string{"data:image/png;base64,BBB", "https://example.com/y.png", ""}},
	}
	out := StripInlineImages(in)
	if out[0].ImageURL != "" {
		t.Fatalf("inline image kept: %q", out[0].ImageURL)
	}
	if out[1].ImageURL != "https://example.com/x.png" {
		t.Fatalf("remote image dropped: %q", out[1].ImageURL)
	}
	if fmt.Sprint(out[1].ImageURLs) != "[ https://example.com/y.png ]" {
		t.Fatalf("gallery: %q", out[1].ImageURLs)
	}
	if in[0].ImageURL == "" {
		t.Fatal("input was modified")
	}
}
