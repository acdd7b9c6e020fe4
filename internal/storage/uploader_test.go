package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/config"
)

func validCfg() config.S3Config {
	return config.S3Config{
		Region:        "ap-south-1",
		AccessKey:     "ak",
		SecretKey:     "sk",
		Bucket:        "assets",
		PublicBaseURL: "https://assets.example.com/",
	}
}

func TestNewUploader_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.S3Config)
	}{
		{"missing bucket", func(c *config.S3Config) { c.Bucket = "" }},
		{"missing region", func(c *config.S3Config) { c.Region = "" }},
		{"missing access key", func(c *config.S3Config) { c.AccessKey = "" }},
		{"missing secret key", func(c *config.S3Config) { c.SecretKey = "" }},
		{"missing public base url", func(c *config.S3Config) { c.PublicBaseURL = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validCfg()
			tc.mutate(&cfg)
			if _, err := NewUploader(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNewUploader_DefaultPrefix(t *testing.T) {
	u, err := NewUploader(validCfg())
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}
	if u.cfg.Prefix != "generated-ai-image" {
		t.Fatalf("prefix = %q", u.cfg.Prefix)
	}
}

func TestObjectKey(t *testing.T) {
	cfg := validCfg()
	cfg.Prefix = "/img/"
	u, err := NewUploader(cfg)
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}

	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
	key := u.objectKey("image/png", now)

	if !strings.HasPrefix(key, "img/2026/03/07/") {
		t.Fatalf("key = %q, want date-partitioned under trimmed prefix", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("key = %q, want .png suffix", key)
	}

	// Keys are unique per call.
	if key2 := u.objectKey("image/png", now); key2 == key {
		t.Fatal("duplicate keys")
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/png":  ".png",
		"IMAGE/PNG":  ".png",
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/webp": ".webp",
		"text/plain": ".bin",
		"":           ".bin",
	}
	for ct, want := range cases {
		if got := extensionFor(ct); got != want {
			t.Fatalf("extensionFor(%q) = %q, want %q", ct, got, want)
		}
	}
}
