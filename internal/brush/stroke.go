package brush

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terraedit/pkg/math"
)

// ErrInvalidStroke is returned by Stroke.Validate.
var ErrInvalidStroke = errors.New("brush: invalid stroke")

// Stroke is one brush application: consumed by a single patch update and
// never persisted.
type Stroke struct {
	Center   math.Vec2 // UV of the brush center
	Size     int       // patch diameter in texels
	Strength float32   // signed; negative lowers terrain
	Falloff  Falloff
	Param    float32 // Gaussian sigma
	Distance DistanceMode
}

// Validate rejects strokes that cannot produce a meaningful dispatch.
func (s Stroke) Validate() error {
	switch {
	case !s.Center.IsFinite():
		return fmt.Errorf("%w: center %v", ErrInvalidStroke, s.Center)
	case s.Size < 1:
		return fmt.Errorf("%w: size %d", ErrInvalidStroke, s.Size)
	case !math.IsFinite32(s.Strength):
		return fmt.Errorf("%w: strength %v", ErrInvalidStroke, s.Strength)
	case s.Falloff == Gaussian && !(s.Param > 0):
		return fmt.Errorf("%w: gaussian sigma %v", ErrInvalidStroke, s.Param)
	case s.Falloff > Constant:
		return fmt.Errorf("%w: %v", ErrInvalidStroke, s.Falloff)
	}
	return nil
}

// WeightAt returns the falloff weight for a texel offset from the center.
// Offsets at or beyond the max distance are clipped to zero.
func (s Stroke) WeightAt(dx, dy int) float32 {
	r := Ratio(dx, dy, s.Size, s.Distance)
	if r >= 1 {
		return 0
	}
	return Weight(s.Falloff, s.Param, r)
}

// Delta returns the height change for a texel offset.
func (s Stroke) Delta(dx, dy int) float32 {
	return s.WeightAt(dx, dy) * s.Strength
}
