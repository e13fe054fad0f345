package page

type ProductInfo struct {
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	TargetAudience string `json:"target_audience" yaml:"target_audience"`
}

// Snapshot is the full editable state of one detail page.
type Snapshot struct {
	Product  ProductInfo   `json:"product"`
	Sections []SectionData `json:"sections"`
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{Product: s.Product, Sections: CloneSections(s.Sections)}
}
