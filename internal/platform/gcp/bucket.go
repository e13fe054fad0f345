package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

// Category is the key prefix objects of one kind live under.
type Category string

const (
	CategoryImage  Category = "images"
	CategoryExport Category = "exports"
)

type BucketService interface {
	UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader, contentType string) error
	DeleteFile(dbc dbctx.Context, category Category, key string) error
	// DeletePrefix removes every object whose key starts with prefix and
	// reports how many were deleted.
	DeletePrefix(dbc dbctx.Context, category Category, prefix string) (int, error)
	GetPublicURL(category Category, key string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	cfg           Config
}

func NewBucketService(ctx context.Context, log *logger.Logger, cfg Config) (BucketService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
		"cdn_domain", cfg.CDNDomain,
	)
	return &bucketService{log: serviceLog, storageClient: stClient, cfg: cfg}, nil
}

func newStorageClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	if cfg.IsEmulator() {
		// the storage client picks the emulator endpoint up from the env
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func objectName(category Category, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	return string(category) + "/" + key
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.cfg.Bucket).Object(objectName(category, key)).NewWriter(ctx)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	bs.log.Debug("Object uploaded", "object", objectName(category, key))
	return nil
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category Category, key string) error {
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	name := objectName(category, key)
	if err := bs.storageClient.Bucket(bs.cfg.Bucket).Object(name).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", name, bs.cfg.Bucket, err)
	}
	return nil
}

func (bs *bucketService) DeletePrefix(dbc dbctx.Context, category Category, prefix string) (int, error) {
	if strings.Trim(strings.TrimSpace(prefix), "/") == "" {
		return 0, fmt.Errorf("refusing to delete %q with an empty prefix", category)
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	it := bs.storageClient.Bucket(bs.cfg.Bucket).Objects(ctx, &storage.Query{Prefix: objectName(category, prefix)})
	deleted := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to list GCS objects under %q: %w", objectName(category, prefix), err)
		}
		key := strings.TrimPrefix(attrs.Name, string(category)+"/")
		if err := bs.DeleteFile(dbctx.Context{Ctx: ctx}, category, key); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return deleted, err
		}
		deleted++
	}
	bs.log.Debug("Objects deleted", "prefix", objectName(category, prefix), "count", deleted)
	return deleted, nil
}

func (bs *bucketService) GetPublicURL(category Category, key string) string {
	return publicURL(bs.cfg, objectName(category, key))
}

func publicURL(cfg Config, name string) string {
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, name)
	}
	if cfg.IsEmulator() {
		base := cfg.PublicBaseURL
		if base == "" {
			base = cfg.EmulatorHost
		}
		return fmt.Sprintf(
			"%s/storage/v1/b/%s/o/%s?alt=media",
			base,
			url.PathEscape(cfg.Bucket),
			url.PathEscape(name),
		)
	}
	if cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, cfg.Bucket, name)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, name)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	default:
		return ""
	}
}
