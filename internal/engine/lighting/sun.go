// Package lighting provides the directional light used to shade terrain.
package lighting

import (
	"math"

	pmath "github.com/Faultbox/terraedit/pkg/math"
)

// Sun is a directional light with ambient fill.
type Sun struct {
	Azimuth   float32 // degrees around Y, 0 looks down +Z
	Elevation float32 // degrees above the horizon
	Ambient   [3]float32
	Diffuse   [3]float32
}

// DefaultSun returns a late-morning sun.
func DefaultSun() Sun {
	return Sun{
		Azimuth:   135,
		Elevation: 50,
		Ambient:   [3]float32{0.25, 0.27, 0.3},
		Diffuse:   [3]float32{1.0, 0.97, 0.9},
	}
}

// Direction returns the normalized vector pointing towards the sun.
func (s Sun) Direction() pmath.Vec3 {
	return SunDirection(s.Azimuth, s.Elevation)
}

// SunDirection converts azimuth/elevation angles in degrees to a unit
// vector pointing towards the light.
func SunDirection(azimuth, elevation float32) pmath.Vec3 {
	az := float64(azimuth) * math.Pi / 180.0
	el := float64(elevation) * math.Pi / 180.0

	return pmath.Vec3{
		X: float32(math.Cos(el) * math.Sin(az)),
		Y: float32(math.Sin(el)),
		Z: float32(math.Cos(el) * math.Cos(az)),
	}
}

// Shade returns the Lambert-lit color of an albedo under the sun, the same
// term the terrain fragment shader evaluates.
func (s Sun) Shade(normal pmath.Vec3, albedo [3]float32) [3]float32 {
	ndl := max(normal.Normalize().Dot(s.Direction()), 0)
	var out [3]float32
	for i := range out {
		out[i] = min(albedo[i]*(s.Ambient[i]+s.Diffuse[i]*ndl), 1)
	}
	return out
}
