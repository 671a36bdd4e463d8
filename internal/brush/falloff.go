// Package brush describes brush strokes: falloff weights, the texel patch a
// stroke covers and the user-facing brush settings.
package brush

import (
	"fmt"
	gomath "math"
	"strings"
)

// Falloff selects the weight curve applied across a brush.
type Falloff uint32

const (
	SineEase Falloff = iota
	Gaussian
	Constant
)

// DefaultSigma is the Gaussian shape parameter used for new brushes.
const DefaultSigma = 0.3

var falloffNames = map[Falloff]string{
	SineEase: "sine",
	Gaussian: "gaussian",
	Constant: "constant",
}

func (f Falloff) String() string {
	if s, ok := falloffNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Falloff(%d)", uint32(f))
}

// ParseFalloff converts a config name to a Falloff.
func ParseFalloff(s string) (Falloff, error) {
	for f, name := range falloffNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown falloff %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Falloff) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Falloff) UnmarshalText(b []byte) error {
	v, err := ParseFalloff(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Weight evaluates the falloff curve at a distance ratio x in [0,1].
// param is the Gaussian sigma and is ignored by the other curves.
//
// The Gaussian is deliberately unnormalized: its peak is 1/(σ√(2π)), so
// weight(0) is not 1 in general.
func Weight(kind Falloff, param, x float32) float32 {
	switch kind {
	case SineEase:
		// 1 - easeInOutSine(x)
		return 1 - (-(float32(gomath.Cos(gomath.Pi*float64(x))) - 1) / 2)
	case Gaussian:
		s := float64(param)
		if s <= 0 {
			return 0
		}
		r := float64(x) / s
		return float32(1 / (s * gomath.Sqrt(2*gomath.Pi)) * gomath.Exp(-0.5*r*r))
	case Constant:
		return 1
	}
	return 0
}
