package brush

import "github.com/Faultbox/terraedit/pkg/math"

// Slider ranges exposed by the editor.
const (
	MinSize     = 1
	MaxSize     = 128
	MinStrength = 0.01
	MaxStrength = 5
	MinSigma    = 0.0001
	MaxSigma    = 0.40
)

// Settings are the persistent brush parameters chosen by the user.
type Settings struct {
	Size     int          `yaml:"size"`
	Strength float32      `yaml:"strength"`
	Falloff  Falloff      `yaml:"falloff"`
	Sigma    float32      `yaml:"sigma"`
	Distance DistanceMode `yaml:"distance"`
}

// DefaultSettings returns the brush used on startup.
func DefaultSettings() Settings {
	return Settings{
		Size:     32,
		Strength: 1,
		Falloff:  Gaussian,
		Sigma:    DefaultSigma,
		Distance: Rectangle,
	}
}

// Clamp forces every field into its slider range.
func (s Settings) Clamp() Settings {
	s.Size = min(max(s.Size, MinSize), MaxSize)
	s.Strength = min(max(s.Strength, MinStrength), MaxStrength)
	s.Sigma = min(max(s.Sigma, MinSigma), MaxSigma)
	if s.Falloff > Constant {
		s.Falloff = Gaussian
	}
	if s.Distance > Circular {
		s.Distance = Rectangle
	}
	return s
}

// Resize changes the size by delta steps, staying within range.
func (s Settings) Resize(delta int) Settings {
	s.Size += delta
	return s.Clamp()
}

// Stroke builds a stroke at uv. sign is +1 to raise and -1 to lower.
func (s Settings) Stroke(uv math.Vec2, sign float32) Stroke {
	c := s.Clamp()
	return Stroke{
		Center:   uv,
		Size:     c.Size,
		Strength: c.Strength * sign,
		Falloff:  c.Falloff,
		Param:    c.Sigma,
		Distance: c.Distance,
	}
}
