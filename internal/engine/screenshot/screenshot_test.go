package screenshot

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFilename(t *testing.T) {
	c := New("shots", "terrain")
	c.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	want := filepath.Join("shots", "terrain_2024-03-09_14-05-07.png")
	if got := c.Filename(); got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestFromPixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	c := New(dir, "shot")

	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	path, err := c.FromPixels(pixels, 2, 2)
	if err != nil {
		t.Fatalf("FromPixels: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	// Top row first: (0,0) is red, (0,1) is blue.
	if r, g, b, _ := img.At(0, 0).RGBA(); r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("top-left = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(0, 1).RGBA(); r != 0 || g != 0 || b>>8 != 255 {
		t.Errorf("bottom-left = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestFromPixelsSizeMismatch(t *testing.T) {
	c := New(t.TempDir(), "shot")
	if _, err := c.FromPixels(make([]byte, 7), 2, 1); err == nil {
		t.Error("expected size mismatch error")
	}
}
