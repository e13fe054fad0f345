package preview

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
)

// Width is the CSS width of the phone frame.
const Width = 375

//go:embed page.tmpl
var pageTemplate string

// Options controls the framing of a rendered page.
type Options struct {
	// Chrome draws the status bar, home indicator and frame border. Export
	// renders turn it off.
	Chrome bool
	Title  string
}

type sectionView struct {
	page.SectionData
	Separator bool
}

type pageView struct {
	Options
	Width    int
	Sections []sectionView
}

var tmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"imgsrc":  imageSource,
	"initial": initial,
	"stars":   func() []int { return []int{1, 2, 3, 4, 5} },
	"nonempty": func(urls []string) []string {
		out := make([]string, 0, len(urls))
		for _, u := range urls {
			if strings.TrimSpace(u) != "" {
				out = append(out, u)
			}
		}
		return out
	},
}).Parse(pageTemplate))

// Render writes a self-contained HTML document for sections.
func Render(w io.Writer, sections []page.SectionData, opts Options) error {
	if opts.Title == "" {
		opts.Title = "상세페이지 미리보기"
	}
	view := pageView{Options: opts, Width: Width, Sections: make([]sectionView, 0, len(sections))}
	for i, s := range sections {
		view.Sections = append(view.Sections, sectionView{
			SectionData: s,
			Separator:   i > 0 && s.Type != page.SectionCTA,
		})
	}
	if err := tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return nil
}

// imageSource passes http(s) and inline image references through as URLs.
// Anything else renders as an empty src.
func imageSource(ref string) template.URL {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return template.URL(ref)
	case strings.HasPrefix(ref, "data:image/"):
		return template.URL(ref)
	default:
		return ""
	}
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}
