package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFlipPixels(t *testing.T) {
	// Two rows, bottom row first: red below, blue above.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img, err := FlipPixels(pixels, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if top := img.RGBAAt(0, 0); top.B != 255 || top.R != 0 {
		t.Errorf("top pixel = %v, want blue", top)
	}
	if bottom := img.RGBAAt(0, 1); bottom.R != 255 {
		t.Errorf("bottom pixel = %v, want red", bottom)
	}
}

func TestFlipPixelsSizeMismatch(t *testing.T) {
	tests := []struct {
		name    string
		n, w, h int
	}{
		{"short", 7, 1, 2},
		{"zero width", 0, 0, 2},
		{"negative", 4, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FlipPixels(make([]byte, tt.n), tt.w, tt.h); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCaptureFromPixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "retroscene")
	sc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC) }

	path, err := sc.CaptureFromPixels(make([]byte, 4*3*4), 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "retroscene_2026-01-02_03-04-05.006.png")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 4 || cfg.Height != 3 {
		t.Errorf("size = %dx%d, want 4x3", cfg.Width, cfg.Height)
	}
}
