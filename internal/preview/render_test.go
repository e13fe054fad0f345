package preview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
)

func sampleSections() []page.SectionData {
	return []page.SectionData{
		{ID: "1", Type: page.SectionIntro, Title: "잠 못 드는 밤은 이제 끝!", SubContent: "꿀잠", ImageURL: "https://example.com/intro.png"},
		{ID: "2", Type: page.SectionGallery, Title: "갤러리", ImageURLs: []string{"https://example.com/g1.png", "", "data:image/png;base64,AAAA", ""}},
		{ID: "5", Type: page.SectionTrust, Title: "리뷰", Items: []page.SectionItem{{Title: "김**님", Desc: "좋아요"}, {Title: "이**님", Desc: "<b>최고</b>"}}},
		{ID: "7", Type: page.SectionCTA, Title: "지금 바로 구매하기", SubContent: "오늘만 무료배송"},
	}
}

func render(t *testing.T, sections []page.SectionData, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, sections, opts); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestRenderChrome(t *testing.T) {
	out := render(t, sampleSections(), Options{Chrome: true})
	for _, want := range []string{`class="status"`, `class="home"`, `9:41`, `id="preview-1"`, `id="preview-7"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("chrome render missing %q", want)
		}
	}
	// gallery and trust get a separator, cta and the first section do not
	if got := strings.Count(out, `<div class="sep"></div>`); got != 2 {
		t.Fatalf("separators: got=%d want=2", got)
	}
}

func TestRenderExportStripsChrome(t *testing.T) {
	out := render(t, sampleSections(), Options{})
	if strings.Contains(out, `class="status"`) || strings.Contains(out, `class="home"`) {
		t.Fatalf("export render should drop the status bar and home indicator")
	}
	if !strings.Contains(out, ".sep{height:8px;background:#ffffff}") {
		t.Fatalf("export render should use white separators")
	}
	if strings.Contains(out, "border-top:1px solid") {
		t.Fatalf("export render should drop the cta border")
	}
}

func TestRenderGallerySkipsEmptyAndKeepsInline(t *testing.T) {
	out := render(t, sampleSections(), Options{})
	if got := strings.Count(out, `alt="Gallery `); got != 2 {
		t.Fatalf("gallery images: got=%d want=2", got)
	}
	if !strings.Contains(out, `src="data:image/png;base64,AAAA"`) {
		t.Fatalf("inline image should render unmodified")
	}
}

func TestRenderTrust(t *testing.T) {
	out := render(t, sampleSections(), Options{})
	if !strings.Contains(out, "(2건)") {
		t.Fatalf("review count missing")
	}
	if !strings.Contains(out, `<span class="avatar">김</span>`) {
		t.Fatalf("avatar initial missing")
	}
	if strings.Contains(out, "<b>최고</b>") {
		t.Fatalf("item text must be escaped")
	}
	if strings.Count(out, "구매 인증") != 2 {
		t.Fatalf("each review should carry the verified badge")
	}
}

func TestRenderIntroWithoutImage(t *testing.T) {
	out := render(t, []page.SectionData{{ID: "a", Type: page.SectionIntro, Title: "hi", ImageURL: "javascript:alert(1)"}}, Options{})
	if !strings.Contains(out, `class="intro-plain"`) {
		t.Fatalf("intro without a usable image should use the gradient block")
	}
	if strings.Contains(out, "javascript:") {
		t.Fatalf("unsafe image reference rendered")
	}
}

func TestRenderProblemFallsBackToContent(t *testing.T) {
	out := render(t, []page.SectionData{{ID: "p", Type: page.SectionProblem, Title: "q", Content: "본문 내용"}}, Options{})
	if !strings.Contains(out, "<p>본문 내용</p>") {
		t.Fatalf("problem card should show content when sub content is empty")
	}
}

func TestInitial(t *testing.T) {
	cases := map[string]string{"김**님": "김", " alice": "a", "": ""}
	for in, want := range cases {
		if got := initial(in); got != want {
			t.Fatalf("initial(%q): got=%q want=%q", in, got, want)
		}
	}
}
