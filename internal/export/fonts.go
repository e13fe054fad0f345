package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts holds the parsed regular and bold typefaces. Parsed fonts are safe to
// share; faces are not, so each render builds its own.
type Fonts struct {
	regular *truetype.Font
	bold    *truetype.Font
}

// LoadFonts reads TrueType files from disk. An empty regular path falls back
// to the Go fonts, which have no Hangul glyphs; set EXPORT_FONT_PATH to a CJK
// font for Korean copy. An empty bold path reuses the regular font.
func LoadFonts(regularPath, boldPath string) (*Fonts, error) {
	regularPath = strings.TrimSpace(regularPath)
	boldPath = strings.TrimSpace(boldPath)

	if regularPath == "" {
		regular, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("parse go regular font: %w", err)
		}
		bold, err := truetype.Parse(gobold.TTF)
		if err != nil {
			return nil, fmt.Errorf("parse go bold font: %w", err)
		}
		if boldPath == "" {
			return &Fonts{regular: regular, bold: bold}, nil
		}
		if bold, err = parseFontFile(boldPath); err != nil {
			return nil, err
		}
		return &Fonts{regular: regular, bold: bold}, nil
	}

	regular, err := parseFontFile(regularPath)
	if err != nil {
		return nil, err
	}
	bold := regular
	if boldPath != "" {
		if bold, err = parseFontFile(boldPath); err != nil {
			return nil, err
		}
	}
	return &Fonts{regular: regular, bold: bold}, nil
}

func parseFontFile(path string) (*truetype.Font, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF %s: %w", path, err)
	}
	return f, nil
}

type faceKey struct {
	size float64
	bold bool
}

// faceCache is owned by a single render.
type faceCache struct {
	fonts *Fonts
	faces map[faceKey]font.Face
}

func newFaceCache(f *Fonts) *faceCache {
	return &faceCache{fonts: f, faces: map[faceKey]font.Face{}}
}

func (c *faceCache) face(size float64, bold bool) font.Face {
	k := faceKey{size: size, bold: bold}
	if f, ok := c.faces[k]; ok {
		return f
	}
	src := c.fonts.regular
	if bold {
		src = c.fonts.bold
	}
	f := truetype.NewFace(src, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	c.faces[k] = f
	return f
}

func (c *faceCache) Close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}
