package editor

import (
	"github.com/Faultbox/terraedit/internal/projection"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

// DepthSampler reads the window-space depth under a pixel (origin top-left).
// ok is false when no sample is available.
type DepthSampler interface {
	SampleDepth(x, y int) (depth float32, ok bool)
}

// Hit is the terrain point under the cursor.
type Hit struct {
	World math.Vec3
	UV    math.Vec2
}

// Pick reconstructs the terrain point under a cursor pixel. With a depth
// sampler the point comes from the depth buffer; pixels showing no geometry
// (cleared depth) report ok=false. Without one the cursor ray is intersected
// with the undisplaced terrain plane. Points outside the terrain footprint
// are misses.
func (s *Session) Pick(frame projection.Frame, cursorX, cursorY float32, width, height int, depth DepthSampler) (Hit, bool) {
	if width <= 0 || height <= 0 {
		return Hit{}, false
	}
	ndc := projection.PixelToNDC(cursorX, cursorY, width, height)

	s.mu.Lock()
	opts := s.cfg.Terrain
	s.mu.Unlock()

	var world math.Vec3
	if depth == nil {
		ray := frame.ScreenToRay(ndc)
		if _, ok := ray.IntersectAABB(footprint(opts)); !ok {
			return Hit{}, false
		}
		p, ok := ray.IntersectPlaneY(0)
		if !ok {
			return Hit{}, false
		}
		world = p
	} else {
		d, ok := depth.SampleDepth(int(cursorX), int(cursorY))
		if !ok || !(d < 1) {
			return Hit{}, false
		}
		world = frame.ScreenToWorld(ndc, d)
	}
	if !terrain.OnTerrain(world) {
		return Hit{}, false
	}
	uv := opts.UVAt(world)
	if uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
		return Hit{}, false
	}
	return Hit{World: world, UV: uv}, true
}

// footprint is the flat box covered by the undisplaced terrain plane.
func footprint(opts terrain.Options) projection.AABB {
	half := opts.HorizontalScale / 2
	return projection.NewAABB(math.Vec3{X: -half, Z: -half}, math.Vec3{X: half, Z: half})
}
