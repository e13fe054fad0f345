package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
	"github.com/yungbote/detailpage-backend/internal/platform/gcp"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

// AssetService owns the bucket objects a document produced: generated
// images and exported PNGs, both keyed under the document id.
type AssetService interface {
	PurgeDocument(ctx context.Context, docID uuid.UUID) error
}

type assetService struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

// NewAssetService returns a purger; with a nil bucket purging is a no-op.
func NewAssetService(log *logger.Logger, bucket gcp.BucketService) AssetService {
	return &assetService{log: log.With("service", "AssetService"), bucket: bucket}
}

func (s *assetService) PurgeDocument(ctx context.Context, docID uuid.UUID) error {
	if s.bucket == nil {
		return nil
	}
	prefix := docID.String() + "/"
	total := 0
	for _, category := range []gcp.Category{gcp.CategoryImage, gcp.CategoryExport} {
		n, err := s.bucket.DeletePrefix(dbctx.Context{Ctx: ctx}, category, prefix)
		total += n
		if err != nil {
			return fmt.Errorf("purge %s for document %s: %w", category, docID, err)
		}
	}
	s.log.Info("Document assets purged", "document_id", docID, "objects", total)
	return nil
}
