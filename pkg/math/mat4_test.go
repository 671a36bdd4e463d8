package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})

	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(float32(math.Pi / 2))
	got := m.TransformPoint(Vec3{1, 0, 0})

	// (1,0,0) rotated 90 degrees around Y lands on -Z.
	if abs(got.X) > 0.001 || abs(got.Y) > 0.001 || abs(got.Z+1) > 0.001 {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", got)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/4), 1, 0.1, 100)

	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}

	// Near plane maps to -1, far plane to +1.
	near := m.TransformPoint(Vec3{0, 0, -0.1})
	far := m.TransformPoint(Vec3{0, 0, -100})
	if abs(near.Z+1) > 0.001 {
		t.Errorf("near plane z: got %f, want -1", near.Z)
	}
	if abs(far.Z-1) > 0.001 {
		t.Errorf("far plane z: got %f, want 1", far.Z)
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{3, 4, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 1, 0})

	got := m.TransformPoint(eye)
	if got.Length() > 0.0001 {
		t.Errorf("eye in view space: got %v, want origin", got)
	}
}

func TestInverse(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"translate", Translate(4, -2, 7)},
		{"scale", Scale(2, 3, 0.5)},
		{"rotate", RotateX(0.7).Mul(RotateY(1.1))},
		{"perspective", Perspective(1.2, 1.6, 0.5, 800)},
		{"view", LookAt(Vec3{10, 40, 10}, Vec3{}, Vec3{0, 1, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Mul(tt.m.Inverse())
			id := Identity()
			for i := 0; i < 16; i++ {
				if abs(got[i]-id[i]) > 0.001 {
					t.Errorf("M * M^-1 element %d: got %f, want %f", i, got[i], id[i])
				}
			}
		})
	}
}

func TestInverseSingular(t *testing.T) {
	if got := Scale(0, 1, 1).Inverse(); got != Identity() {
		t.Errorf("singular inverse: got %v, want identity", got)
	}
}

func TestFromScaleRotationTranslation(t *testing.T) {
	s := Vec3{2, 2, 2}
	r := QuatRotationX(float32(math.Pi / 2))
	tr := Vec3{10, 0, -5}

	got := FromScaleRotationTranslation(s, r, tr)
	want := Translate(tr.X, tr.Y, tr.Z).Mul(RotateX(float32(math.Pi / 2))).Mul(Scale(s.X, s.Y, s.Z))

	for i := 0; i < 16; i++ {
		if abs(got[i]-want[i]) > 0.0001 {
			t.Errorf("element %d: got %f, want %f", i, got[i], want[i])
		}
	}

	// Local +Y ends up on world +Z after the 90 degree X rotation.
	p := got.TransformPoint(Vec3{0, 0.5, 0})
	if abs(p.X-10) > 0.0001 || abs(p.Y) > 0.0001 || abs(p.Z+4) > 0.0001 {
		t.Errorf("local (0,0.5,0): got %v, want (10, 0, -4)", p)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
