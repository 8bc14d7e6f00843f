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
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"rotateY90", RotateY(float32(math.Pi / 2)), Vec3{1, 0, 0}, Vec3{0, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.p)
			if !vecNear(got, tt.want, 0.001) {
				t.Errorf("TransformPoint: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(5, 5, 5).Mul(Scale(2, 2, 2))
	got := m.TransformDirection(Vec3{1, 0, 0})
	if got != (Vec3{2, 0, 0}) {
		t.Errorf("TransformDirection: got %v, want (2,0,0)", got)
	}
}

func TestCompose(t *testing.T) {
	rot := QuatFromAxisAngle(Vec3{Y: 1}, float32(math.Pi/2))
	m := Compose(Vec3{1, 2, 3}, rot, Vec3{2, 2, 2})
	want := Translate(1, 2, 3).Mul(rot.ToMat4()).Mul(Scale(2, 2, 2))

	for i := 0; i < 16; i++ {
		if abs(m[i]-want[i]) > 0.0001 {
			t.Errorf("Compose element %d: got %f, want %f", i, m[i], want[i])
		}
	}
	if got := m.MaxScale(); abs(got-2) > 0.0001 {
		t.Errorf("MaxScale: got %f, want 2", got)
	}
}

func TestInverse(t *testing.T) {
	m := Compose(Vec3{4, -2, 7}, QuatFromAxisAngle(Vec3{X: 1}, 0.7), Vec3{3, 1, 2})
	r := m.Mul(m.Inverse())
	id := Identity()

	for i := 0; i < 16; i++ {
		if abs(r[i]-id[i]) > 0.0001 {
			t.Errorf("M * M^-1 element %d: got %f, want %f", i, r[i], id[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	var zero Mat4
	if zero.Inverse() != Identity() {
		t.Error("Inverse of a singular matrix should be identity")
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/4), 1, 0.1, 100)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}

	// A point on the near plane maps to NDC z = -1.
	near := m.TransformPoint(Vec3{0, 0, -0.1})
	if abs(near.Z+1) > 0.001 {
		t.Errorf("near plane z: got %f, want -1", near.Z)
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, 0, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 1, 0})

	if got := m.TransformPoint(eye); !vecNear(got, Vec3{}, 0.0001) {
		t.Errorf("eye in view space: got %v, want origin", got)
	}
	if got := m.TransformPoint(Vec3{}); !vecNear(got, Vec3{0, 0, -5}, 0.0001) {
		t.Errorf("center in view space: got %v, want (0,0,-5)", got)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func vecNear(a, b Vec3, eps float32) bool {
	return abs(a.X-b.X) <= eps && abs(a.Y-b.Y) <= eps && abs(a.Z-b.Z) <= eps
}
