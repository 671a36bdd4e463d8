package framebuffer

import "testing"

func TestGLPixel(t *testing.T) {
	tests := []struct {
		name   string
		x, y   int
		wantX  int32
		wantY  int32
		wantOK bool
	}{
		{"top left", 0, 0, 0, 719, true},
		{"bottom right", 1279, 719, 1279, 0, true},
		{"centre", 640, 360, 640, 359, true},
		{"left of frame", -1, 10, 0, 0, false},
		{"below frame", 10, 720, 0, 0, false},
		{"right of frame", 1280, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := glPixel(tt.x, tt.y, 1280, 720)
			if ok != tt.wantOK || x != tt.wantX || y != tt.wantY {
				t.Errorf("glPixel(%d, %d) = (%d, %d, %v), want (%d, %d, %v)",
					tt.x, tt.y, x, y, ok, tt.wantX, tt.wantY, tt.wantOK)
			}
		})
	}
}
