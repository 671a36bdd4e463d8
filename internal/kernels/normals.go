package kernels

import (
	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

const (
	// DefaultUpWeight is the vertical component fed to the normal filter.
	DefaultUpWeight = 0.5
	// MinUpWeight is the floor applied to the vertical component so a
	// normal can always be normalized.
	MinUpWeight = 1e-4
	// DefaultHalo is the ring of extra texels recomputed around a patch.
	DefaultHalo = 1
)

// NormalSizeFor returns the normal patch diameter for an edit of the given
// size. Texels just outside an edit see it through their 3×3 stencil, so the
// recompute covers a halo on every side.
func NormalSizeFor(size, halo int) int {
	return size + 2*max(halo, 0)
}

// NormalParams is the normal recompute parameter block.
type NormalParams struct {
	Center      math.Vec2 // UV of the patch center
	Size        int       // patch diameter in texels, halo included
	UpWeight    float32   // vertical filter component
	HeightScale float32   // multiplier applied to heights before filtering
}

// DefaultNormalParams returns parameters for a patch at uv.
func DefaultNormalParams(uv math.Vec2, size int) NormalParams {
	return NormalParams{
		Center:      uv,
		Size:        size,
		UpWeight:    DefaultUpWeight,
		HeightScale: 1,
	}
}

// NormalRecompute derives normals from a 3×3 Sobel filter over the heights.
type NormalRecompute struct {
	Heights *terrain.Heightfield
	Normals *terrain.NormalMap
	Params  NormalParams

	patch brush.Patch
}

// NewNormalRecompute binds the normal filter to its resources.
func NewNormalRecompute(h *terrain.Heightfield, n *terrain.NormalMap, p NormalParams) *NormalRecompute {
	cx, cy := h.TexelAt(p.Center)
	return &NormalRecompute{
		Heights: h,
		Normals: n,
		Params:  p,
		patch:   brush.PatchAt(cx, cy, p.Size),
	}
}

// FullNormals returns a recompute covering the whole grid.
func FullNormals(h *terrain.Heightfield, n *terrain.NormalMap, upWeight, heightScale float32) *NormalRecompute {
	size := max(h.Width(), h.Height())
	// Even diameter so the patch spans [center-size/2, center+size/2] ⊇ grid.
	size += size % 2
	return NewNormalRecompute(h, n, NormalParams{
		Center:      math.Vec2{X: 0.5, Y: 0.5},
		Size:        size,
		UpWeight:    upWeight,
		HeightScale: heightScale,
	})
}

// Name implements compute.Kernel.
func (k *NormalRecompute) Name() string { return "normal_recompute" }

// Bindings implements compute.Kernel.
func (k *NormalRecompute) Bindings() []compute.Binding {
	return []compute.Binding{
		{Resource: k.Heights, Access: compute.Read},
		{Resource: k.Normals, Access: compute.Write},
	}
}

// Groups implements compute.Kernel.
func (k *NormalRecompute) Groups() (int, int) {
	g := compute.Groups(k.Params.Size)
	return g, g
}

// Patch returns the texel rectangle the dispatch may touch.
func (k *NormalRecompute) Patch() brush.Patch { return k.patch }

// Invoke implements compute.Kernel.
func (k *NormalRecompute) Invoke(inv compute.Invocation) {
	_, _, x, y, ok := locate(inv, k.patch)
	if !ok || !k.Normals.InBounds(x, y) || !k.Heights.InBounds(x, y) {
		return
	}
	k.Normals.Store(x, y, terrain.Pack(SobelNormal(k.Heights, x, y, k.Params.UpWeight, k.Params.HeightScale)))
}

// SobelNormal computes the unit normal at (x, y) from its clamped 3×3
// neighbourhood. The up component is a fixed weight, never derived from
// the gradient, and never below MinUpWeight.
func SobelNormal(h *terrain.Heightfield, x, y int, upWeight, heightScale float32) math.Vec3 {
	s := func(dx, dy int) float32 {
		return h.Clamped(x+dx, y+dy) * heightScale
	}

	gx := s(-1, -1) - s(1, -1) +
		2*s(-1, 0) - 2*s(1, 0) +
		s(-1, 1) - s(1, 1)
	gz := s(-1, -1) + 2*s(0, -1) + s(1, -1) -
		s(-1, 1) - 2*s(0, 1) - s(1, 1)

	up := upWeight
	if !(up >= MinUpWeight) {
		up = MinUpWeight
	}

	n := math.Vec3{X: gx, Y: up, Z: gz}.Normalize()
	if !n.IsFinite() || n == (math.Vec3{}) {
		// Non-finite heights; fall back to flat rather than poison lighting.
		return math.Vec3{Y: 1}
	}
	return n
}
