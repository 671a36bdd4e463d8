package camera

import (
	"testing"

	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

const eps = 1e-3

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestPositionDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 10, Y: 5, Z: -20}
	c.RotationY = 1.2

	if d := c.Position().Distance(c.Center); absf(d-c.Distance) > eps {
		t.Errorf("distance to center = %v, want %v", d, c.Distance)
	}
	if c.Position().Y <= c.Center.Y {
		t.Error("camera with positive pitch should sit above its center")
	}
}

func TestFrameProjectsCenterToScreenCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 3, Z: 7}

	ndc, depth, ok := c.Frame(1280, 720).Project(c.Center)
	if !ok {
		t.Fatal("center should be in front of the camera")
	}
	if absf(ndc.X) > eps || absf(ndc.Y) > eps {
		t.Errorf("center projects to %v, want origin", ndc)
	}
	if depth <= 0 || depth >= 1 {
		t.Errorf("depth %v outside (0,1)", depth)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	for range 200 {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("zoom in: distance %v, want %v", c.Distance, c.MinDistance)
	}
	for range 200 {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("zoom out: distance %v, want %v", c.Distance, c.MaxDistance)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch %v, want %v", c.RotationX, c.MaxPitch)
	}
	c.HandleDrag(100, -1e6)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch %v, want %v", c.RotationX, c.MinPitch)
	}
	if c.RotationY != -100*c.DragSensitivity {
		t.Errorf("yaw %v, want %v", c.RotationY, -100*c.DragSensitivity)
	}
}

func TestHandleMovementForward(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleMovement(1, 0)
	if c.Center.Z >= 0 || absf(c.Center.X) > eps {
		t.Errorf("forward at zero yaw moved center to %v", c.Center)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	mesh := terrain.BuildPlane(terrain.Options{HorizontalScale: 1000, VerticalScale: 10, PatchResolution: 4})
	c.FitToBounds(mesh.Bounds)

	if c.Center != (math.Vec3{}) {
		t.Errorf("center = %v, want origin", c.Center)
	}
	if c.Distance < 1000 {
		t.Errorf("distance %v too close to see a 1000 unit plane", c.Distance)
	}
	if c.Far < c.Distance {
		t.Errorf("far plane %v closer than the camera distance %v", c.Far, c.Distance)
	}
}
