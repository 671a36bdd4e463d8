// Package terrain holds the editable terrain state: the height grid, its
// derived normal grid, the tessellation control mesh and snapshot I/O.
package terrain

import "github.com/Faultbox/terraedit/pkg/math"

// Vertex is a control point of the tessellated terrain plane.
type Vertex struct {
	Position [3]float32
	TexCoord [2]float32
}

// Mesh holds the terrain control mesh ready for GPU upload.
// Every four consecutive indices form one quad patch.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// PatchCount returns the number of quad patches in the mesh.
func (m *Mesh) PatchCount() int {
	return len(m.Indices) / 4
}

// Bounds holds the axis-aligned bounding box of the terrain.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Options describes how the height grid maps onto the world.
type Options struct {
	HorizontalScale float32 // Width and depth of the terrain plane in world units
	VerticalScale   float32 // World height of a texel value of 1
	PatchResolution int     // Number of patches along each side of the plane
}

// DefaultOptions returns the options used for new terrains.
func DefaultOptions() Options {
	return Options{
		HorizontalScale: 512,
		VerticalScale:   100,
		PatchResolution: 32,
	}
}

// UVAt maps a world position on the centred terrain plane to height-grid UV.
// The plane spans [-hs/2, hs/2] on X and Z; Y is up and ignored.
func (o Options) UVAt(world math.Vec3) math.Vec2 {
	return math.Vec2{
		X: world.X / o.HorizontalScale,
		Y: world.Z / o.HorizontalScale,
	}.AddScalar(0.5)
}

// WorldAt is the inverse of UVAt for a given height value.
func (o Options) WorldAt(uv math.Vec2, height float32) math.Vec3 {
	return math.Vec3{
		X: (uv.X - 0.5) * o.HorizontalScale,
		Y: height * o.VerticalScale,
		Z: (uv.Y - 0.5) * o.HorizontalScale,
	}
}

// TexelWorldSize returns the world size of one texel for a grid of the given width.
func (o Options) TexelWorldSize(width int) float32 {
	if width <= 0 {
		return 0
	}
	return o.HorizontalScale / float32(width)
}

// OnTerrain reports whether a reconstructed world position hit geometry.
// Positions reconstructed from cleared depth (sky) are NaN or infinite.
func OnTerrain(p math.Vec3) bool {
	return p.IsFinite()
}
