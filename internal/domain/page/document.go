package page

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is the persisted form of a detail page. Sections are stored with
// inline data: images blanked.
type Document struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ProductName           string `gorm:"type:text;not null;default:''" json:"product_name"`
	ProductDescription    string `gorm:"type:text;not null;default:''" json:"product_description"`
	ProductTargetAudience string `gorm:"type:text;not null;default:''" json:"product_target_audience"`

	Sections datatypes.JSON `gorm:"not null" json:"sections"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if len(d.Sections) == 0 {
		d.Sections = datatypes.JSON("[]")
	}
	return nil
}

func (d *Document) Product() ProductInfo {
	return ProductInfo{
		Name:           d.ProductName,
		Description:    d.ProductDescription,
		TargetAudience: d.ProductTargetAudience,
	}
}

func (d *Document) SetProduct(p ProductInfo) {
	d.ProductName = p.Name
	d.ProductDescription = p.Description
	d.ProductTargetAudience = p.TargetAudience
}

func (d *Document) DecodeSections() ([]SectionData, error) {
	if len(d.Sections) == 0 {
		return nil, nil
	}
	var out []SectionData
	if err := json.Unmarshal(d.Sections, &out); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	return out, nil
}

func (d *Document) EncodeSections(sections []SectionData) error {
	if sections == nil {
		sections = []SectionData{}
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	d.Sections = datatypes.JSON(raw)
	return nil
}
