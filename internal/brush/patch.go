package brush

import (
	"fmt"
	gomath "math"
	"strings"
)

// DistanceMode selects the distance that maps to a ratio of 1.
type DistanceMode uint32

const (
	// Rectangle normalizes against the patch half-extent, size/2.
	Rectangle DistanceMode = iota
	// Circular normalizes against the patch half-diagonal, size·√2/2.
	Circular
)

func (m DistanceMode) String() string {
	if m == Circular {
		return "circular"
	}
	return "rectangle"
}

// ParseDistanceMode converts a config name to a DistanceMode.
func ParseDistanceMode(s string) (DistanceMode, error) {
	switch strings.ToLower(s) {
	case "rectangle", "rect":
		return Rectangle, nil
	case "circular", "circle":
		return Circular, nil
	}
	return 0, fmt.Errorf("unknown distance mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m DistanceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DistanceMode) UnmarshalText(b []byte) error {
	v, err := ParseDistanceMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MaxDistance returns the distance that maps to ratio 1 for a patch of the given size.
func (m DistanceMode) MaxDistance(size int) float32 {
	d := float32(size) / 2
	if m == Circular {
		d *= gomath.Sqrt2
	}
	return d
}

// Ratio returns the Euclidean distance of offset from the patch center
// divided by the mode's max distance, clamped to [0,1].
func Ratio(dx, dy, size int, mode DistanceMode) float32 {
	maxDist := mode.MaxDistance(size)
	if maxDist <= 0 {
		return 1
	}
	d := float32(gomath.Sqrt(float64(dx*dx+dy*dy))) / maxDist
	if d > 1 {
		return 1
	}
	return d
}

// Rect is an inclusive integer rectangle in texel space.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Empty reports whether the rectangle covers no texels.
func (r Rect) Empty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

// Area returns the number of texels covered.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// Patch is the axis-aligned texel rectangle a stroke may touch.
type Patch struct {
	CenterX, CenterY int
	Half             int // half-extent; size/2
}

// PatchAt returns the patch of the given diameter centered on a texel.
func PatchAt(cx, cy, size int) Patch {
	return Patch{CenterX: cx, CenterY: cy, Half: size / 2}
}

// Contains reports whether an offset from the center passes the per-axis
// rectangle test. Corner offsets beyond Half in Euclidean distance still pass.
func (p Patch) Contains(dx, dy int) bool {
	return absi(dx) <= p.Half && absi(dy) <= p.Half
}

// Bounds returns the unclipped texel rectangle.
func (p Patch) Bounds() Rect {
	return Rect{
		MinX: p.CenterX - p.Half, MinY: p.CenterY - p.Half,
		MaxX: p.CenterX + p.Half, MaxY: p.CenterY + p.Half,
	}
}

// Clip returns the part of the patch inside a width×height grid.
func (p Patch) Clip(width, height int) Rect {
	r := p.Bounds()
	r.MinX = max(r.MinX, 0)
	r.MinY = max(r.MinY, 0)
	r.MaxX = min(r.MaxX, width-1)
	r.MaxY = min(r.MaxY, height-1)
	return r
}

// Expand grows the patch by n texels on every side.
func (p Patch) Expand(n int) Patch {
	p.Half += n
	return p
}

func absi(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
