package projection

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/terraedit/pkg/math"
)

func testFrame() Frame {
	proj := math.Perspective(gomath.Pi/4, 16.0/9.0, 1, 500)
	view := math.LookAt(math.Vec3{X: 20, Y: 60, Z: 70}, math.Vec3{X: 10, Y: 5, Z: -8}, math.Vec3{Y: 1})
	return NewFrame(proj, view)
}

func TestPixelToNDC(t *testing.T) {
	tests := []struct {
		px, py float32
		want   math.Vec2
	}{
		{0, 0, math.Vec2{X: -1 + 1.0/800, Y: 1 - 1.0/600}},
		{399.5, 299.5, math.Vec2{X: 0, Y: 0}},
		{799, 599, math.Vec2{X: 1 - 1.0/800, Y: -1 + 1.0/600}},
	}
	for _, tt := range tests {
		got := PixelToNDC(tt.px, tt.py, 800, 600)
		if got.Distance(tt.want) > 1e-6 {
			t.Errorf("PixelToNDC(%v,%v) = %v, want %v", tt.px, tt.py, got, tt.want)
		}
		x, y := NDCToPixel(got, 800, 600)
		if gomath.Abs(float64(x-tt.px)) > 1e-3 || gomath.Abs(float64(y-tt.py)) > 1e-3 {
			t.Errorf("NDCToPixel round trip = (%v,%v), want (%v,%v)", x, y, tt.px, tt.py)
		}
	}
}

func TestScreenToWorld_RoundTrip(t *testing.T) {
	f := testFrame()
	points := []math.Vec3{
		{X: 10, Y: 5, Z: -8},
		{X: 0, Y: 0, Z: 0},
		{X: -30, Y: 2, Z: -60},
		{X: 40, Y: -3, Z: 10},
	}
	for _, p := range points {
		ndc, depth, ok := f.Project(p)
		if !ok {
			t.Fatalf("Project(%v) behind camera", p)
		}
		if depth < 0 || depth > 1 {
			t.Fatalf("depth %v outside [0,1]", depth)
		}
		got := f.ScreenToWorld(ndc, depth)
		if got.Distance(p) > 0.05 {
			t.Errorf("ScreenToWorld(Project(%v)) = %v", p, got)
		}
	}
}

func TestProject_BehindCamera(t *testing.T) {
	f := testFrame()
	if _, _, ok := f.Project(math.Vec3{X: 30, Y: 115, Z: 148}); ok {
		t.Error("point behind the camera should not project")
	}
}

func TestDecal_RoundTripAtCenter(t *testing.T) {
	center := math.Vec3{X: 10, Y: 5, Z: -8}
	f := testFrame().WithDecal(BrushDecal(center, 16))

	ndc, depth, ok := f.Project(center)
	if !ok {
		t.Fatal("decal center does not project")
	}

	local := f.WorldToDecal(f.ScreenToWorld(ndc, depth))
	if local.Length() > 1e-3 {
		t.Errorf("decal-local center = %v, want origin", local)
	}

	uv, ok := f.DecalUV(ndc, depth)
	if !ok {
		t.Fatal("decal center reported outside the decal")
	}
	if uv.Distance(math.Vec2{X: 0.5, Y: 0.5}) > 1e-3 {
		t.Errorf("DecalUV at center = %v, want (0.5,0.5)", uv)
	}
}

func TestBrushDecal_Orientation(t *testing.T) {
	center := math.Vec3{X: 100, Y: 3, Z: 50}
	f := Frame{}.WithDecal(BrushDecal(center, 10))

	tests := []struct {
		name  string
		world math.Vec3
		local math.Vec3
	}{
		{"center", center, math.Vec3{}},
		{"east edge", math.Vec3{X: 105, Y: 3, Z: 50}, math.Vec3{X: 0.5}},
		{"south edge", math.Vec3{X: 100, Y: 3, Z: 55}, math.Vec3{Y: 0.5}},
		{"above", math.Vec3{X: 100, Y: 8, Z: 50}, math.Vec3{Z: -0.5}},
	}
	for _, tt := range tests {
		got := f.WorldToDecal(tt.world)
		if got.Distance(tt.local) > 1e-5 {
			t.Errorf("%s: WorldToDecal = %v, want %v", tt.name, got, tt.local)
		}
		back := f.Model.TransformPoint(tt.local)
		if back.Distance(tt.world) > 1e-4 {
			t.Errorf("%s: Model round trip = %v, want %v", tt.name, back, tt.world)
		}
	}
}

func TestInsideDecal(t *testing.T) {
	tests := []struct {
		p    math.Vec3
		want bool
	}{
		{math.Vec3{}, true},
		{math.Vec3{X: 0.5, Y: -0.5, Z: 0.5}, true},
		{math.Vec3{X: 0.51}, false},
		{math.Vec3{Y: -0.7}, false},
		{math.Vec3{Z: 2}, false},
	}
	for _, tt := range tests {
		if got := InsideDecal(tt.p); got != tt.want {
			t.Errorf("InsideDecal(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestDecalUV_RejectsOutside(t *testing.T) {
	center := math.Vec3{X: 10, Y: 5, Z: -8}
	f := testFrame().WithDecal(BrushDecal(center, 4))

	ndc, depth, ok := f.Project(math.Vec3{X: 30, Y: 5, Z: -8})
	if !ok {
		t.Fatal("point does not project")
	}
	if _, ok := f.DecalUV(ndc, depth); ok {
		t.Error("fragment outside the brush should have no coverage")
	}

	// Off-center but inside: UV moves along +X.
	ndc, depth, _ = f.Project(math.Vec3{X: 11, Y: 5, Z: -8})
	uv, ok := f.DecalUV(ndc, depth)
	if !ok {
		t.Fatal("fragment inside the brush rejected")
	}
	if gomath.Abs(float64(uv.X-0.75)) > 0.01 || gomath.Abs(float64(uv.Y-0.5)) > 0.01 {
		t.Errorf("DecalUV = %v, want (0.75,0.5)", uv)
	}
}

func TestScreenToRay_HitsPlane(t *testing.T) {
	f := testFrame()
	target := math.Vec3{X: -12, Y: 0, Z: 4}
	ndc, _, ok := f.Project(target)
	if !ok {
		t.Fatal("target does not project")
	}

	ray := f.ScreenToRay(ndc)
	if l := ray.Direction.Length(); gomath.Abs(float64(l-1)) > 1e-5 {
		t.Errorf("direction length = %v", l)
	}
	hit, ok := ray.IntersectPlaneY(0)
	if !ok {
		t.Fatal("ray missed the ground plane")
	}
	if hit.Distance(target) > 0.05 {
		t.Errorf("hit = %v, want %v", hit, target)
	}
}

func TestRay_IntersectPlaneY_Misses(t *testing.T) {
	up := Ray{Origin: math.Vec3{Y: 10}, Direction: math.Vec3{Y: 1}}
	if _, ok := up.IntersectPlaneY(0); ok {
		t.Error("ray pointing away should miss")
	}
	flat := Ray{Origin: math.Vec3{Y: 10}, Direction: math.Vec3{X: 1}}
	if _, ok := flat.IntersectPlaneY(0); ok {
		t.Error("parallel ray should miss")
	}
}

func TestRay_IntersectAABB(t *testing.T) {
	box := NewAABB(math.Vec3{X: 1, Y: 1, Z: 1}, math.Vec3{X: -1, Y: -1, Z: -1})
	if box.Min != (math.Vec3{X: -1, Y: -1, Z: -1}) {
		t.Fatalf("NewAABB did not order corners: %+v", box)
	}

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"front", Ray{Origin: math.Vec3{Z: -5}, Direction: math.Vec3{Z: 1}}, true, 4},
		{"inside", Ray{Origin: math.Vec3{}, Direction: math.Vec3{X: 1}}, true, 1},
		{"miss", Ray{Origin: math.Vec3{X: 3, Z: -5}, Direction: math.Vec3{Z: 1}}, false, 0},
		{"behind", Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: 1}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && got != tt.wantT {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}
}
