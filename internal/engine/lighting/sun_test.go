package lighting

import (
	"testing"

	pmath "github.com/Faultbox/terraedit/pkg/math"
)

const eps = 1e-5

func near(a, b float32) bool {
	d := a - b
	return d < eps && d > -eps
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name               string
		azimuth, elevation float32
		want               pmath.Vec3
	}{
		{"zenith", 0, 90, pmath.Vec3{Y: 1}},
		{"horizon +Z", 0, 0, pmath.Vec3{Z: 1}},
		{"horizon +X", 90, 0, pmath.Vec3{X: 1}},
		{"horizon -Z", 180, 0, pmath.Vec3{Z: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.azimuth, tt.elevation)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) || !near(got.Z, tt.want.Z) {
				t.Errorf("SunDirection(%v, %v) = %v, want %v", tt.azimuth, tt.elevation, got, tt.want)
			}
			if !near(got.Length(), 1) {
				t.Errorf("length %v, want 1", got.Length())
			}
		})
	}
}

func TestShade(t *testing.T) {
	s := Sun{Elevation: 90, Ambient: [3]float32{0.2, 0.2, 0.2}, Diffuse: [3]float32{1, 1, 1}}
	albedo := [3]float32{0.5, 0.5, 0.5}

	lit := s.Shade(pmath.Vec3{Y: 1}, albedo)
	if !near(lit[0], 0.6) {
		t.Errorf("facing the sun: %v, want 0.6", lit[0])
	}
	away := s.Shade(pmath.Vec3{Y: -1}, albedo)
	if !near(away[0], 0.1) {
		t.Errorf("facing away: %v, want ambient 0.1", away[0])
	}
	bright := s.Shade(pmath.Vec3{Y: 1}, [3]float32{2, 2, 2})
	if bright[0] != 1 {
		t.Errorf("expected clamp to 1, got %v", bright[0])
	}
}
