// Package camera provides the orbit camera used to view and paint terrain.
package camera

import (
	gomath "math"

	"github.com/Faultbox/terraedit/internal/projection"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Lens
	FOV  float32 // vertical field of view in degrees
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        400.0,
		RotationX:       0.7,
		RotationY:       0.0,
		FOV:             60,
		Near:            0.5,
		Far:             10000,
		MinDistance:     5.0,
		MaxDistance:     5000.0,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cosX := float32(gomath.Cos(float64(c.RotationX)))
	return c.Center.Add(math.Vec3{
		X: c.Distance * cosX * float32(gomath.Sin(float64(c.RotationY))),
		Y: c.Distance * float32(gomath.Sin(float64(c.RotationX))),
		Z: c.Distance * cosX * float32(gomath.Cos(float64(c.RotationY))),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for a viewport.
func (c *OrbitCamera) ProjectionMatrix(width, height int) math.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	fov := c.FOV * gomath.Pi / 180
	return math.Perspective(fov, aspect, c.Near, c.Far)
}

// Frame returns the projection state of the camera for a viewport.
func (c *OrbitCamera) Frame(width, height int) projection.Frame {
	return projection.NewFrame(c.ProjectionMatrix(width, height), c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the camera center point on the ground plane.
func (c *OrbitCamera) HandleMovement(forward, right float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	sinY := float32(gomath.Sin(float64(c.RotationY)))
	cosY := float32(gomath.Cos(float64(c.RotationY)))

	// Negate forward so W moves "into" the scene
	c.Center.X += (-sinY*forward + cosY*right) * speed
	c.Center.Z += (-cosY*forward - sinY*right) * speed
}

// FitToBounds centers the camera on terrain bounds and backs off far
// enough to see the whole plane.
func (c *OrbitCamera) FitToBounds(b terrain.Bounds) {
	center := b.Center()
	c.Center = math.Vec3{X: center[0], Y: center[1], Z: center[2]}

	size := max(b.Max[0]-b.Min[0], b.Max[2]-b.Min[2])
	c.Distance = clamp(size*1.1, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.7 // ~40 degrees down
	c.RotationY = 0.0
	c.Far = max(c.Far, 4*c.Distance)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
