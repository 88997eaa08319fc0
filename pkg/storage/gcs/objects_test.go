package gcs

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBuildObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	got := BuildObjectName("products", "foto produk (1).jpg", now)
	want := "products/1700000000000_foto_produk__1_.jpg"
	if got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
}

func TestBuildObjectNameEmptyFilename(t *testing.T) {
	now := time.UnixMilli(42)
	got := BuildObjectName("banners", "  ", now)
	if !strings.HasSuffix(got, "_file") {
		t.Fatalf("expected fallback filename, got %q", got)
	}
}

func TestObjectNameFromURL(t *testing.T) {
	name, err := ObjectNameFromURL("https://storage.googleapis.com/toko-media/banners/123_promo.png", "toko-media")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "banners/123_promo.png" {
		t.Fatalf("unexpected object name %q", name)
	}
}

func TestObjectNameFromURLWrongBucket(t *testing.T) {
	_, err := ObjectNameFromURL("https://storage.googleapis.com/other/banners/x.png", "toko-media")
	if !errors.Is(err, ErrInvalidObjectURL) {
		t.Fatalf("expected ErrInvalidObjectURL, got %v", err)
	}
}

func TestObjectNameFromURLWrongHost(t *testing.T) {
	_, err := ObjectNameFromURL("https://example.com/toko-media/banners/x.png", "toko-media")
	if !errors.Is(err, ErrInvalidObjectURL) {
		t.Fatalf("expected ErrInvalidObjectURL, got %v", err)
	}
}
