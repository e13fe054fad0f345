package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/data/repos/testutil"
)

func TestPurgeDocumentWithoutBucket(t *testing.T) {
	if err := NewAssetService(testutil.Logger(t), nil).PurgeDocument(context.Background(), uuid.New()); err != nil {
		t.Fatalf("PurgeDocument: %v", err)
	}
}
