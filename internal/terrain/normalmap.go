package terrain

import (
	"fmt"

	"github.com/Faultbox/terraedit/pkg/math"
)

// NormalMap stores one RGBA normal per height texel, each component
// remapped from [-1,1] to [0,1]. Alpha is always 1.
type NormalMap struct {
	name   string
	width  int
	height int
	data   []float32
}

// NewNormalMap creates a normal map filled with the flat up normal.
func NewNormalMap(width, height int) (*NormalMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("normal map: invalid size %dx%d", width, height)
	}
	n := &NormalMap{
		name:   "normals",
		width:  width,
		height: height,
		data:   make([]float32, width*height*4),
	}
	up := Pack(math.Vec3{Y: 1})
	for i := 0; i < len(n.data); i += 4 {
		copy(n.data[i:i+4], up[:])
	}
	return n, nil
}

// ResourceName identifies the normal map in command streams.
func (n *NormalMap) ResourceName() string { return n.name }

// Width returns the map width in texels.
func (n *NormalMap) Width() int { return n.width }

// Height returns the map height in texels.
func (n *NormalMap) Height() int { return n.height }

// Data exposes the packed RGBA backing store.
func (n *NormalMap) Data() []float32 { return n.data }

// InBounds reports whether (x, y) addresses a texel.
func (n *NormalMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < n.width && y < n.height
}

// Texel returns the packed value at (x, y).
func (n *NormalMap) Texel(x, y int) (math.Vec4, bool) {
	if !n.InBounds(x, y) {
		return math.Vec4{}, false
	}
	i := (y*n.width + x) * 4
	return math.Vec4{n.data[i], n.data[i+1], n.data[i+2], n.data[i+3]}, true
}

// Store writes a packed value at (x, y). Out-of-range writes are rejected.
func (n *NormalMap) Store(x, y int, packed math.Vec4) bool {
	if !n.InBounds(x, y) {
		return false
	}
	i := (y*n.width + x) * 4
	copy(n.data[i:i+4], packed[:])
	return true
}

// Normal returns the unpacked normal at (x, y).
func (n *NormalMap) Normal(x, y int) (math.Vec3, bool) {
	t, ok := n.Texel(x, y)
	if !ok {
		return math.Vec3{}, false
	}
	return Unpack(t), true
}

// RGBA8 exports the map as unsigned normalized bytes for texture upload.
func (n *NormalMap) RGBA8() []byte {
	out := make([]byte, len(n.data))
	for i, v := range n.data {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		out[i] = byte(v*255 + 0.5)
	}
	return out
}

// SetRGBA8 replaces the map contents from unsigned normalized bytes.
func (n *NormalMap) SetRGBA8(src []byte) error {
	if len(src) != len(n.data) {
		return fmt.Errorf("normal map: got %d bytes, want %d", len(src), len(n.data))
	}
	for i, b := range src {
		n.data[i] = float32(b) / 255
	}
	return nil
}

// Pack remaps a unit normal to stored [0,1] form with alpha 1.
func Pack(n math.Vec3) math.Vec4 {
	return math.Vec4{n.X*0.5 + 0.5, n.Y*0.5 + 0.5, n.Z*0.5 + 0.5, 1}
}

// Unpack converts a stored texel back to a [-1,1] vector.
func Unpack(t math.Vec4) math.Vec3 {
	return math.Vec3{X: t[0]*2 - 1, Y: t[1]*2 - 1, Z: t[2]*2 - 1}
}
