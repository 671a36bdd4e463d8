// Package projection converts between screen, world and brush decal space.
// Everything here is exact matrix algebra over a per-frame set of camera
// matrices; nothing is stateful or iterative.
package projection

import (
	gomath "math"

	"github.com/Faultbox/terraedit/pkg/math"
)

// Frame holds the camera and brush transforms for one rendered frame.
type Frame struct {
	Projection     math.Mat4
	View           math.Mat4
	InvProjection  math.Mat4
	InvView        math.Mat4
	ProjectionView math.Mat4

	Model math.Mat4 // brush decal model transform
	Decal math.Mat4 // world to decal space, Model⁻¹
}

// NewFrame derives the inverse and combined matrices from a camera.
func NewFrame(projection, view math.Mat4) Frame {
	return Frame{
		Projection:     projection,
		View:           view,
		InvProjection:  projection.Inverse(),
		InvView:        view.Inverse(),
		ProjectionView: projection.Mul(view),
		Model:          math.Identity(),
		Decal:          math.Identity(),
	}
}

// WithDecal returns a copy of f using model as the brush decal transform.
func (f Frame) WithDecal(model math.Mat4) Frame {
	f.Model = model
	f.Decal = model.Inverse()
	return f
}

// PixelToNDC maps a pixel (origin top-left) to normalized device
// coordinates, sampling the pixel center. Y is flipped so +1 is the top.
func PixelToNDC(px, py float32, width, height int) math.Vec2 {
	return math.Vec2{
		X: (px+0.5)/float32(width)*2 - 1,
		Y: 1 - (py+0.5)/float32(height)*2,
	}
}

// NDCToPixel is the inverse of PixelToNDC.
func NDCToPixel(ndc math.Vec2, width, height int) (px, py float32) {
	return (ndc.X+1)/2*float32(width) - 0.5, (1-ndc.Y)/2*float32(height) - 0.5
}

// ScreenToWorld reconstructs the world position behind an NDC position from
// a window-space depth sample in [0,1].
func (f Frame) ScreenToWorld(ndc math.Vec2, depth float32) math.Vec3 {
	clip := math.Vec4{ndc.X, ndc.Y, depth*2 - 1, 1}
	view := f.InvProjection.MulVec4(clip)
	// Divide in view space; w is 0 only for degenerate projections.
	viewPos := math.Vec3{X: view[0] / view[3], Y: view[1] / view[3], Z: view[2] / view[3]}
	return f.InvView.TransformPoint(viewPos)
}

// Project maps a world position to NDC and window-space depth.
// ok is false for points at or behind the camera plane.
func (f Frame) Project(p math.Vec3) (ndc math.Vec2, depth float32, ok bool) {
	clip := f.ProjectionView.MulVec4(p.Vec4(1))
	if clip[3] <= 0 {
		return math.Vec2{}, 0, false
	}
	n := math.Vec3{X: clip[0] / clip[3], Y: clip[1] / clip[3], Z: clip[2] / clip[3]}
	return math.Vec2{X: n.X, Y: n.Y}, n.Z*0.5 + 0.5, true
}

// WorldToDecal maps a world position into the brush's local unit cube.
func (f Frame) WorldToDecal(p math.Vec3) math.Vec3 {
	return f.Decal.TransformPoint(p)
}

// InsideDecal reports whether a decal-space point lies in the unit cube.
func InsideDecal(local math.Vec3) bool {
	return abs(local.X) <= 0.5 && abs(local.Y) <= 0.5 && abs(local.Z) <= 0.5
}

// DecalUV returns the brush UV covering a fragment, or false when the
// fragment's surface point lies outside the decal cube.
func (f Frame) DecalUV(ndc math.Vec2, depth float32) (math.Vec2, bool) {
	local := f.WorldToDecal(f.ScreenToWorld(ndc, depth))
	if !local.IsFinite() || !InsideDecal(local) {
		return math.Vec2{}, false
	}
	return local.XY().AddScalar(0.5), true
}

// BrushDecal returns the model transform of a brush decal with the given
// world diameter centered at center. The decal's local XY plane is laid onto
// the terrain's XZ plane.
func BrushDecal(center math.Vec3, diameter float32) math.Mat4 {
	return math.FromScaleRotationTranslation(
		math.Vec3{X: diameter, Y: diameter, Z: diameter},
		math.QuatRotationX(gomath.Pi/2),
		center,
	)
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
