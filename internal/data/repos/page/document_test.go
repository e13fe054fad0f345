package page

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/data/repos/testutil"
	types "github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
)

func newDoc(t *testing.T, name string) *types.Document {
	t.Helper()
	doc := &types.Document{}
	doc.SetProduct(types.ProductInfo{Name: name, Description: "desc", TargetAudience: "everyone"})
	if err := doc.EncodeSections([]types.SectionData{{ID: "1", Type: types.SectionIntro, Title: "hello"}}); err != nil {
		t.Fatalf("EncodeSections: %v", err)
	}
	return doc
}

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewDocumentRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, newDoc(t, "pillow"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("Create: expected generated id")
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Product().Name != "pillow" {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}
	sections, err := got.DecodeSections()
	if err != nil {
		t.Fatalf("DecodeSections: %v", err)
	}
	if len(sections) != 1 || sections[0].Title != "hello" {
		t.Fatalf("DecodeSections: unexpected %+v", sections)
	}

	got.SetProduct(types.ProductInfo{Name: "blanket"})
	if err := got.EncodeSections([]types.SectionData{
		{ID: "1", Type: types.SectionIntro},
		{ID: "2", Type: types.SectionCTA},
	}); err != nil {
		t.Fatalf("EncodeSections: %v", err)
	}
	if err := repo.Save(dbc, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID after save: %v", err)
	}
	sections, _ = reloaded.DecodeSections()
	if reloaded.Product().Name != "blanket" || reloaded.Product().Description != "" || len(sections) != 2 {
		t.Fatalf("Save: unexpected reload %+v sections=%d", reloaded.Product(), len(sections))
	}

	if err := repo.Delete(dbc, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if gone != nil {
		t.Fatalf("GetByID after delete: expected nil, got %+v", gone)
	}
}

func TestDocumentRepoMissing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewDocumentRepo(db, testutil.Logger(t))
	dbc := dbctx.Background()

	got, err := repo.GetByID(dbc, uuid.New())
	if err != nil || got != nil {
		t.Fatalf("GetByID (missing): got=%v err=%v", got, err)
	}
	if err := repo.Save(dbc, &types.Document{ID: uuid.New()}); err == nil {
		t.Fatalf("Save (missing): expected error")
	}
}

func TestDocumentRepoListNewestFirst(t *testing.T) {
	db := testutil.DB(t)
	repo := NewDocumentRepo(db, testutil.Logger(t))
	dbc := dbctx.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"a", "b", "c"} {
		doc := newDoc(t, name)
		doc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		doc.UpdatedAt = doc.CreatedAt
		if _, err := repo.Create(dbc, doc); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	docs, err := repo.List(dbc, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("List: got=%d want=2", len(docs))
	}
	if docs[0].Product().Name != "c" || docs[1].Product().Name != "b" {
		t.Fatalf("List: unexpected order %q, %q", docs[0].Product().Name, docs[1].Product().Name)
	}
}
