package pagebuilder

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
)

//go:embed defaults.yaml
var defaultSectionsYAML []byte

type templateFile struct {
	Sections []page.SectionData `yaml:"sections"`
}

// DefaultSections returns the built-in starter page.
func DefaultSections() []page.SectionData {
	sections, err := ParseSections(defaultSectionsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default sections: %v", err))
	}
	return sections
}

// LoadSections reads a section template from a YAML file. An empty path
// yields the built-in defaults.
func LoadSections(path string) ([]page.SectionData, error) {
	if path == "" {
		return DefaultSections(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read section template: %w", err)
	}
	return ParseSections(raw)
}

func ParseSections(raw []byte) ([]page.SectionData, error) {
	var tf templateFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parse section template: %w", err)
	}
	if len(tf.Sections) == 0 {
		return nil, fmt.Errorf("section template has no sections")
	}
	seen := make(map[string]bool, len(tf.Sections))
	for i, s := range tf.Sections {
		if s.ID == "" {
			return nil, fmt.Errorf("section %d: missing id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("section %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if !s.Type.Valid() {
			return nil, fmt.Errorf("section %q: %w %q", s.ID, ErrInvalidSectionType, s.Type)
		}
		if len(s.ImageURLs) > page.MaxGalleryImages {
			return nil, fmt.Errorf("section %q: more than %d images", s.ID, page.MaxGalleryImages)
		}
	}
	return tf.Sections, nil
}
