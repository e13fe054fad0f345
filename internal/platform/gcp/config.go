package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/detailpage-backend/internal/platform/envutil"
)

type Config struct {
	Bucket    string
	CDNDomain string
	// EmulatorHost points the client at a fake-gcs server.
	EmulatorHost string
	// PublicBaseURL overrides the host used in public object URLs.
	PublicBaseURL string
}

func ConfigFromEnv() Config {
	return Config{
		Bucket:        envutil.String("GCS_BUCKET_NAME", ""),
		CDNDomain:     strings.TrimRight(envutil.String("CDN_DOMAIN", ""), "/"),
		EmulatorHost:  strings.TrimRight(envutil.String("STORAGE_EMULATOR_HOST", ""), "/"),
		PublicBaseURL: strings.TrimRight(envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""), "/"),
	}
}

// Enabled reports whether object storage is configured at all.
func (c Config) Enabled() bool { return c.Bucket != "" }

func (c Config) IsEmulator() bool { return c.EmulatorHost != "" }

func (c Config) Validate() error {
	if !c.Enabled() {
		return fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	if c.IsEmulator() && !isAbsoluteURL(c.EmulatorHost) {
		return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", c.EmulatorHost)
	}
	if c.PublicBaseURL != "" && !isAbsoluteURL(c.PublicBaseURL) {
		return fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", c.PublicBaseURL)
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
