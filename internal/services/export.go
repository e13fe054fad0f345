package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/detailpage-backend/internal/export"
	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
	"github.com/yungbote/detailpage-backend/internal/platform/gcp"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/preview"
	"github.com/yungbote/detailpage-backend/internal/realtime"
)

var ErrStorageUnavailable = errors.New("object storage is not configured")

type ExportResult struct {
	FileName string
	PNG      []byte
	// URL is set when the export was uploaded.
	URL string
}

type ExportService interface {
	Export(ctx context.Context, docID uuid.UUID, upload bool) (*ExportResult, error)
	Preview(ctx context.Context, docID uuid.UUID, w io.Writer, opts preview.Options) error
}

type exportService struct {
	log        *logger.Logger
	editor     EditorService
	rasterizer export.Rasterizer
	bucket     gcp.BucketService
	emitter    realtime.Emitter
	now        func() time.Time
}

func NewExportService(log *logger.Logger, editor EditorService, rasterizer export.Rasterizer, bucket gcp.BucketService, emitter realtime.Emitter) ExportService {
	if emitter == nil {
		emitter = realtime.EmitterFunc(func(context.Context, realtime.SSEMessage) {})
	}
	return &exportService{
		log:        log.With("service", "ExportService"),
		editor:     editor,
		rasterizer: rasterizer,
		bucket:     bucket,
		emitter:    emitter,
		now:        time.Now,
	}
}

func (s *exportService) Preview(ctx context.Context, docID uuid.UUID, w io.Writer, opts preview.Options) error {
	snap, err := s.editor.Snapshot(ctx, docID)
	if err != nil {
		return err
	}
	if opts.Title == "" && snap.Product.Name != "" {
		opts.Title = snap.Product.Name
	}
	return preview.Render(w, snap.Sections, opts)
}

// Export rasterizes the live session, inline images included.
func (s *exportService) Export(ctx context.Context, docID uuid.UUID, upload bool) (*ExportResult, error) {
	if upload && s.bucket == nil {
		return nil, ErrStorageUnavailable
	}
	snap, err := s.editor.Snapshot(ctx, docID)
	if err != nil {
		return nil, err
	}
	started := s.now()
	png, err := s.rasterizer.Rasterize(ctx, snap.Sections)
	if err != nil {
		return nil, fmt.Errorf("export document %s: %w", docID, err)
	}
	res := &ExportResult{FileName: export.FileName(started), PNG: png}

	if upload {
		key := fmt.Sprintf("%s/%d.png", docID, started.UnixNano())
		if err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.CategoryExport, key, bytes.NewReader(png), "image/png"); err != nil {
			return nil, fmt.Errorf("upload export: %w", err)
		}
		res.URL = s.bucket.GetPublicURL(gcp.CategoryExport, key)
	}

	s.log.Info("Document exported",
		"document_id", docID,
		"sections", len(snap.Sections),
		"bytes", len(png),
		"uploaded", upload,
		"duration", time.Since(started),
	)
	s.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.DocumentChannel(docID),
		Event:   realtime.SSEEventExportReady,
		Data: map[string]any{
			"document_id": docID,
			"file_name":   res.FileName,
			"url":         res.URL,
			"bytes":       len(png),
		},
	})
	return res, nil
}
