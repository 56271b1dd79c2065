package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFlipRGBA(t *testing.T) {
	// 1x2 image: bottom row red, top row blue
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img, err := FlipRGBA(pixels, 1, 2)
	if err != nil {
		t.Fatalf("FlipRGBA failed: %v", err)
	}
	if r, _, b, _ := img.At(0, 0).RGBA(); b == 0 || r != 0 {
		t.Errorf("expected blue at top, got r=%d b=%d", r, b)
	}
	if r, _, b, _ := img.At(0, 1).RGBA(); r == 0 || b != 0 {
		t.Errorf("expected red at bottom, got r=%d b=%d", r, b)
	}
}

func TestFlipRGBASizeMismatch(t *testing.T) {
	tests := []struct {
		name          string
		size          int
		width, height int
	}{
		{"short", 7, 1, 2},
		{"long", 12, 1, 2},
		{"zero width", 0, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FlipRGBA(make([]byte, tt.size), tt.width, tt.height); err == nil {
				t.Error("expected error for mismatched pixel data")
			}
		})
	}
}

func TestSaveWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshots(dir, "castle")
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	pixels := make([]byte, 4*3*2)
	for i := range pixels {
		pixels[i] = byte(i * 10)
	}

	first, err := s.Save(pixels, 4, 3)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, err := s.Save(pixels, 4, 3)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if first == second {
		t.Errorf("expected distinct filenames, got %s twice", first)
	}
	if !strings.HasPrefix(filepath.Base(first), "castle_2024-05-01_12-00-00") {
		t.Errorf("unexpected filename %s", first)
	}
	if s.Taken() != 2 {
		t.Errorf("expected 2 screenshots, got %d", s.Taken())
	}

	f, err := os.Open(first)
	if err != nil {
		t.Fatalf("open screenshot: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode screenshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("expected 4x3 image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestSaveRejectsBadPixels(t *testing.T) {
	s := NewScreenshots(t.TempDir(), "castle")
	if _, err := s.Save([]byte{1, 2, 3}, 2, 2); err == nil {
		t.Error("expected error for short pixel buffer")
	}
	if s.Taken() != 0 {
		t.Errorf("expected no screenshots, got %d", s.Taken())
	}
}
