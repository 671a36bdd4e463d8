package math

// Vec4 is a 4-component vector, laid out like a GLSL vec4.
type Vec4 [4]float32

// XYZ drops the w component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// PerspectiveDivide returns xyz/w. A zero w leaves xyz untouched so that
// directions and affine points pass through unchanged.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v[3] == 0 || v[3] == 1 {
		return v.XYZ()
	}
	return Vec3{v[0] / v[3], v[1] / v[3], v[2] / v[3]}
}
