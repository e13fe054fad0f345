package page

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

type DocumentRepo interface {
	Create(dbc dbctx.Context, doc *types.Document) (*types.Document, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	List(dbc dbctx.Context, limit int) ([]*types.Document, error)
	Save(dbc dbctx.Context, doc *types.Document) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) conn(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *documentRepo) Create(dbc dbctx.Context, doc *types.Document) (*types.Document, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if err := r.conn(dbc).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID returns nil, nil when the document does not exist.
func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var doc types.Document
	err := r.conn(dbc).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// List returns the most recently updated documents first.
func (r *documentRepo) List(dbc dbctx.Context, limit int) ([]*types.Document, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var out []*types.Document
	if err := r.conn(dbc).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save writes product columns and sections of an existing document.
func (r *documentRepo) Save(dbc dbctx.Context, doc *types.Document) error {
	if doc == nil || doc.ID == uuid.Nil {
		return errors.New("document id required")
	}
	res := r.conn(dbc).
		Model(&types.Document{}).
		Where("id = ?", doc.ID).
		Updates(map[string]interface{}{
			"product_name":            doc.ProductName,
			"product_description":     doc.ProductDescription,
			"product_target_audience": doc.ProductTargetAudience,
			"sections":                doc.Sections,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *documentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.conn(dbc).Where("id = ?", id).Delete(&types.Document{}).Error
}
