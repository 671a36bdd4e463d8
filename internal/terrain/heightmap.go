package terrain

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/terraedit/pkg/math"
)

// Heightfield is a W×H grid of height values stored row-major.
// Values are unconstrained; coordinates outside the grid are rejected, never wrapped.
type Heightfield struct {
	name   string
	width  int
	height int
	data   []float32
}

// NewHeightfield creates a flat (all zero) heightfield.
func NewHeightfield(width, height int) (*Heightfield, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("heightfield: invalid size %dx%d", width, height)
	}
	return &Heightfield{
		name:   "heights",
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}, nil
}

// ResourceName identifies the heightfield in command streams.
func (h *Heightfield) ResourceName() string { return h.name }

// Width returns the grid width in texels.
func (h *Heightfield) Width() int { return h.width }

// Height returns the grid height in texels.
func (h *Heightfield) Height() int { return h.height }

// Data exposes the row-major backing store. Callers must respect the
// dispatch ordering rules of the compute package while editing is active.
func (h *Heightfield) Data() []float32 { return h.data }

// InBounds reports whether (x, y) addresses a texel.
func (h *Heightfield) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < h.width && y < h.height
}

// At returns the height at (x, y), or false if the texel is outside the grid.
func (h *Heightfield) At(x, y int) (float32, bool) {
	if !h.InBounds(x, y) {
		return 0, false
	}
	return h.data[y*h.width+x], true
}

// Set stores v at (x, y). Out-of-range writes are rejected.
func (h *Heightfield) Set(x, y int, v float32) bool {
	if !h.InBounds(x, y) {
		return false
	}
	h.data[y*h.width+x] = v
	return true
}

// Clamped returns the height at (x, y) with each coordinate clamped to the
// grid independently, so edge texels reuse the boundary value.
func (h *Heightfield) Clamped(x, y int) float32 {
	return h.data[clampi(y, 0, h.height-1)*h.width+clampi(x, 0, h.width-1)]
}

// TexelAt maps a UV coordinate to the texel containing it.
// The result may lie outside the grid for UVs outside [0,1]².
func (h *Heightfield) TexelAt(uv math.Vec2) (x, y int) {
	return int(gomath.Floor(float64(uv.X * float32(h.width)))),
		int(gomath.Floor(float64(uv.Y * float32(h.height))))
}

// Fill sets every texel to v.
func (h *Heightfield) Fill(v float32) {
	for i := range h.data {
		h.data[i] = v
	}
}

// Clone returns a deep copy.
func (h *Heightfield) Clone() *Heightfield {
	c := *h
	c.data = append([]float32(nil), h.data...)
	return &c
}

// Range returns the minimum and maximum height.
func (h *Heightfield) Range() (lo, hi float32) {
	lo, hi = h.data[0], h.data[0]
	for _, v := range h.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Normalize rescales heights so that the most extreme absolute value becomes 1.
// A flat zero field is left untouched.
func (h *Heightfield) Normalize() {
	var extreme float32
	for _, v := range h.data {
		if a := absf(v); a > extreme {
			extreme = a
		}
	}
	if extreme == 0 {
		return
	}
	inv := 1 / extreme
	for i := range h.data {
		h.data[i] *= inv
	}
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
