package qrcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestGenerate(t *testing.T) {
	data, err := Generate("http://192.168.1.20:8000/super-mario-optimized.html", 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Generated data is not a PNG: %v", err)
	}
	if got := img.Bounds().Dx(); got != DefaultSize {
		t.Errorf("Expected width %d, got %d", DefaultSize, got)
	}
}

func TestGenerate_EmptyURL(t *testing.T) {
	if _, err := Generate("", DefaultSize); err == nil {
		t.Error("Expected error for empty URL")
	}
}
