package gcp

import (
	"testing"

	"github.com/yungbote/detailpage-backend/internal/platform/dbctx"
)

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "gcs default",
			cfg:  Config{Bucket: "pages"},
			want: "https://storage.googleapis.com/pages/images/a.png",
		},
		{
			name: "cdn",
			cfg:  Config{Bucket: "pages", CDNDomain: "cdn.example.com"},
			want: "https://cdn.example.com/images/a.png",
		},
		{
			name: "emulator",
			cfg:  Config{Bucket: "pages", EmulatorHost: "http://fake-gcs:4443"},
			want: "http://fake-gcs:4443/storage/v1/b/pages/o/images%2Fa.png?alt=media",
		},
		{
			name: "emulator with public base",
			cfg:  Config{Bucket: "pages", EmulatorHost: "http://fake-gcs:4443", PublicBaseURL: "http://localhost:4443"},
			want: "http://localhost:4443/storage/v1/b/pages/o/images%2Fa.png?alt=media",
		},
		{
			name: "public base",
			cfg:  Config{Bucket: "pages", PublicBaseURL: "https://objects.example.com"},
			want: "https://objects.example.com/pages/images/a.png",
		},
	}
	for _, tc := range cases {
		bs := &bucketService{cfg: tc.cfg}
		if got := bs.GetPublicURL(CategoryImage, "/a.png"); got != tc.want {
			t.Fatalf("%s: got=%q want=%q", tc.name, got, tc.want)
		}
	}
}

func TestDeletePrefixRequiresPrefix(t *testing.T) {
	bs := &bucketService{cfg: Config{Bucket: "pages"}}
	for _, prefix := range []string{"", " ", "/", "//"} {
		if _, err := bs.DeletePrefix(dbctx.Background(), CategoryExport, prefix); err == nil {
			t.Fatalf("DeletePrefix(%q): expected error", prefix)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error without bucket")
	}
	if err := (Config{Bucket: "b", EmulatorHost: "fake-gcs:4443"}).Validate(); err == nil {
		t.Fatalf("expected error for relative emulator host")
	}
	if err := (Config{Bucket: "b", EmulatorHost: "http://fake-gcs:4443"}).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GCS_BUCKET_NAME", "pages")
	t.Setenv("CDN_DOMAIN", "cdn.example.com/")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
	cfg := ConfigFromEnv()
	if !cfg.Enabled() || cfg.IsEmulator() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CDNDomain != "cdn.example.com" {
		t.Fatalf("cdn domain: got=%q", cfg.CDNDomain)
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := contentTypeForKey("x/Y.PNG"); got != "image/png" {
		t.Fatalf("png: got=%q", got)
	}
	if got := contentTypeForKey("x.bin"); got != "" {
		t.Fatalf("unknown: got=%q", got)
	}
}
