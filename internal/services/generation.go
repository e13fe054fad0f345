package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/pagebuilder"
	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
	"github.com/yungbote/detailpage-backend/internal/platform/gcp"
	"github.com/yungbote/detailpage-backend/internal/platform/gemini"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
)

var (
	ErrAIUnavailable   = errors.New("AI generation is not configured")
	ErrProductRequired = errors.New("product name and description are required")
	ErrNotGallery      = errors.New("section is not a gallery")
)

const imageAspectRatio = "1:1"

// ProgressFunc is called after each gallery variation finishes.
type ProgressFunc func(completed, total int)

type GenerationService interface {
	GenerateSectionCopy(ctx context.Context, product page.ProductInfo, t page.SectionType) (map[string]any, error)
	GenerateSectionImage(ctx context.Context, product page.ProductInfo, t page.SectionType, title, content string) (string, error)
	GenerateGalleryImages(ctx context.Context, product page.ProductInfo, onProgress ProgressFunc) ([]string, error)

	GenerateCopyForSection(ctx context.Context, docID uuid.UUID, sectionID string) (*DocumentState, error)
	GenerateImageForSection(ctx context.Context, docID uuid.UUID, sectionID string) (*DocumentState, error)
	GenerateGallery(ctx context.Context, docID uuid.UUID, sectionID string) (*DocumentState, error)
}

type generationService struct {
	log     *logger.Logger
	ai      gemini.Client
	editor  EditorService
	bucket  gcp.BucketService
	emitter realtime.Emitter
}

// NewGenerationService accepts a nil ai client (every call then fails with
// ErrAIUnavailable) and a nil bucket (images are returned as data: URLs).
func NewGenerationService(log *logger.Logger, ai gemini.Client, editor EditorService, bucket gcp.BucketService, emitter realtime.Emitter) GenerationService {
	if emitter == nil {
		emitter = realtime.EmitterFunc(func(context.Context, realtime.SSEMessage) {})
	}
	return &generationService{
		log:     log.With("service", "GenerationService"),
		ai:      ai,
		editor:  editor,
		bucket:  bucket,
		emitter: emitter,
	}
}

func (s *generationService) GenerateSectionCopy(ctx context.Context, product page.ProductInfo, t page.SectionType) (map[string]any, error) {
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}
	out, err := s.ai.GenerateJSON(ctx, SystemInstruction(t), copyPrompt(product, t))
	if err != nil {
		return nil, fmt.Errorf("generate %s copy: %w", t, err)
	}
	return out, nil
}

func (s *generationService) GenerateSectionImage(ctx context.Context, product page.ProductInfo, t page.SectionType, title, content string) (string, error) {
	return s.sectionImage(ctx, "", product, t, title, content)
}

func (s *generationService) sectionImage(ctx context.Context, scope string, product page.ProductInfo, t page.SectionType, title, content string) (string, error) {
	if s.ai == nil {
		return "", ErrAIUnavailable
	}
	img, err := s.ai.GenerateImage(ctx, sectionImagePrompt(product, t, title, content), imageAspectRatio)
	if err != nil {
		return "", fmt.Errorf("generate %s image: %w", t, err)
	}
	return s.imageRef(ctx, scope, img)
}

// GenerateGalleryImages requests every style concurrently. A style that
// comes back without an image is dropped; any other failure fails the call.
// Results keep the order of GalleryStyles.
func (s *generationService) GenerateGalleryImages(ctx context.Context, product page.ProductInfo, onProgress ProgressFunc) ([]string, error) {
	return s.galleryImages(ctx, "", product, onProgress)
}

func (s *generationService) galleryImages(ctx context.Context, scope string, product page.ProductInfo, onProgress ProgressFunc) ([]string, error) {
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}
	total := len(GalleryStyles)
	refs := make([]string, total)

	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	for i, style := range GalleryStyles {
		g.Go(func() error {
			img, err := s.ai.GenerateImage(gctx, galleryPrompt(product, style), imageAspectRatio)
			if err != nil && !errors.Is(err, gemini.ErrNoImage) {
				return fmt.Errorf("gallery variation %d: %w", i+1, err)
			}

			mu.Lock()
			completed++
			if onProgress != nil {
				onProgress(completed, total)
			}
			mu.Unlock()

			if err != nil {
				s.log.Warn("Gallery variation returned no image", "style", style)
				return nil
			}
			ref, err := s.imageRef(gctx, scope, img)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, total)
	for _, ref := range refs {
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (s *generationService) GenerateCopyForSection(ctx context.Context, docID uuid.UUID, sectionID string) (*DocumentState, error) {
	product, section, err := s.target(ctx, docID, sectionID)
	if err != nil {
		return nil, err
	}
	raw, err := s.GenerateSectionCopy(ctx, product, section.Type)
	if err != nil {
		s.emitFailure(ctx, docID, sectionID, "copy", err)
		return nil, err
	}
	patch := ApplyCopy(raw)
	if patch.Empty() {
		err := fmt.Errorf("generate %s copy: %w", section.Type, gemini.ErrEmptyResponse)
		s.emitFailure(ctx, docID, sectionID, "copy", err)
		return nil, err
	}
	return s.editor.UpdateSection(ctx, docID, sectionID, patch)
}

func (s *generationService) GenerateImageForSection(ctx context.Context, docID uuid.UUID, sectionID string) (*DocumentState, error) {
	product, section, err := s.target(ctx, docID, sectionID)
	if err != nil {
		return nil, err
	}
	content := section.Content
	if content == "" {
		content = section.SubContent
	}
	ref, err := s.sectionImage(ctx, docID.String(), product, section.Type, section.Title, content)
	if err != nil {
		s.emitFailure(ctx, docID, sectionID, "image", err)
		return nil, err
	}
	return s.editor.UpdateSection(ctx, docID, sectionID, page.SectionPatch{ImageURL: &ref})
}

func (s *generationService) GenerateGallery(ctx context.Context, docID uuid.UUID, sectionID string) (*DocumentState, error) {
	product, section, err := s.target(ctx, docID, sectionID)
	if err != nil {
		return nil, err
	}
	if section.Type != page.SectionGallery {
		return nil, ErrNotGallery
	}
	channel := realtime.DocumentChannel(docID)
	emitProgress := func(completed, total int) {
		s.emitter.Emit(ctx, realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventGalleryProgress,
			Data: map[string]any{
				"document_id": docID,
				"section_id":  sectionID,
				"completed":   completed,
				"total":       total,
			},
		})
	}
	emitProgress(0, len(GalleryStyles))

	refs, err := s.galleryImages(ctx, docID.String(), product, emitProgress)
	if err != nil {
		s.emitFailure(ctx, docID, sectionID, "gallery", err)
		return nil, err
	}
	s.log.Info("Gallery generated", "document_id", docID, "section_id", sectionID, "images", len(refs))
	return s.editor.UpdateSection(ctx, docID, sectionID, page.SectionPatch{ImageURLs: &refs})
}

// target resolves the product and section an AI call works on.
func (s *generationService) target(ctx context.Context, docID uuid.UUID, sectionID string) (page.ProductInfo, page.SectionData, error) {
	if s.ai == nil {
		return page.ProductInfo{}, page.SectionData{}, ErrAIUnavailable
	}
	snap, err := s.editor.Snapshot(ctx, docID)
	if err != nil {
		return page.ProductInfo{}, page.SectionData{}, err
	}
	if strings.TrimSpace(snap.Product.Name) == "" || strings.TrimSpace(snap.Product.Description) == "" {
		return page.ProductInfo{}, page.SectionData{}, ErrProductRequired
	}
	for _, sec := range snap.Sections {
		if sec.ID == sectionID {
			return snap.Product, sec, nil
		}
	}
	return page.ProductInfo{}, page.SectionData{}, pagebuilder.ErrSectionNotFound
}

func (s *generationService) emitFailure(ctx context.Context, docID uuid.UUID, sectionID, kind string, err error) {
	s.log.Warn("AI generation failed", "document_id", docID, "section_id", sectionID, "kind", kind, "error", err)
	s.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.DocumentChannel(docID),
		Event:   realtime.SSEEventGenerationFailed,
		Data: map[string]any{
			"document_id": docID,
			"section_id":  sectionID,
			"kind":        kind,
			"error":       err.Error(),
		},
	})
}

// imageRef uploads img when a bucket is configured and otherwise inlines it
// as a data: URL. Uploads made for a document are keyed under its id.
func (s *generationService) imageRef(ctx context.Context, scope string, img gemini.ImageGeneration) (string, error) {
	mime := img.MimeType
	if mime == "" {
		mime = "image/png"
	}
	if s.bucket == nil {
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes), nil
	}
	key := uuid.New().String() + extForMime(mime)
	if scope != "" {
		key = scope + "/" + key
	}
	if err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.CategoryImage, key, bytes.NewReader(img.Bytes), mime); err != nil {
		return "", fmt.Errorf("upload generated image: %w", err)
	}
	return s.bucket.GetPublicURL(gcp.CategoryImage, key), nil
}

func extForMime(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

var (
	copyTitleKeys      = []string{"headline", "title"}
	copySubContentKeys = []string{"subtext", "subtitle", "sub_text", "subTitle"}
	copyContentKeys    = []string{"body", "content", "description", "text"}
)

// ApplyCopy maps a model reply onto a section patch. Several spellings are
// accepted for each field; empty values never overwrite.
func ApplyCopy(raw map[string]any) page.SectionPatch {
	var patch page.SectionPatch
	if v := firstString(raw, copyTitleKeys); v != "" {
		patch.Title = &v
	}
	if v := firstString(raw, copySubContentKeys); v != "" {
		patch.SubContent = &v
	}
	if v := firstString(raw, copyContentKeys); v != "" {
		patch.Content = &v
	}
	if list, ok := raw["items"].([]any); ok {
		items := make([]page.SectionItem, 0, len(list))
		for _, entry := range list {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			items = append(items, page.SectionItem{
				Title: firstString(obj, []string{"title", "name", "question"}),
				Desc:  firstString(obj, []string{"desc", "description", "answer", "content"}),
			})
		}
		patch.Items = &items
	}
	return patch
}

func firstString(raw map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64, bool:
			return fmt.Sprint(v)
		}
	}
	return ""
}
