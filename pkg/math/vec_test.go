package math

import (
	"math"
	"testing"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add: got %v", got)
	}
	if got := b.Sub(a); got != (Vec3{3, 3, 3}) {
		t.Errorf("Sub: got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot: got %v, want 32", got)
	}
	if got := (Vec3{X: 1}).Cross(Vec3{Y: 1}); got != (Vec3{Z: 1}) {
		t.Errorf("Cross: got %v, want (0,0,1)", got)
	}
	if got := a.Lerp(b, 0.5); !vecNear(got, Vec3{2.5, 3.5, 4.5}, 1e-6) {
		t.Errorf("Lerp: got %v", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize zero: got %v", got)
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
	}{
		{"front", Vec3{0, 0, 5}},
		{"side", Vec3{5, 0, 0}},
		{"above", Vec3{1, 4, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Spherical
			s.SetFromVec3(tt.v)
			if got := s.Vec3(); !vecNear(got, tt.v, 0.0001) {
				t.Errorf("round trip: got %v, want %v", got, tt.v)
			}
		})
	}
}

func TestSphericalAngles(t *testing.T) {
	var s Spherical
	s.SetFromVec3(Vec3{X: 2})
	if abs(s.Phi-float32(math.Pi/2)) > 1e-6 {
		t.Errorf("Phi: got %v, want pi/2", s.Phi)
	}
	if abs(s.Theta-float32(math.Pi/2)) > 1e-6 {
		t.Errorf("Theta: got %v, want pi/2", s.Theta)
	}
	if s.Radius != 2 {
		t.Errorf("Radius: got %v, want 2", s.Radius)
	}
}

func TestSphericalMakeSafe(t *testing.T) {
	s := Spherical{Radius: 1, Phi: 0}
	s.MakeSafe()
	if s.Phi <= 0 {
		t.Errorf("MakeSafe should move Phi off the pole, got %v", s.Phi)
	}

	s.Phi = float32(math.Pi / 2)
	s.MakeSafe()
	if s.Phi != float32(math.Pi/2) {
		t.Errorf("MakeSafe changed an in-range Phi: %v", s.Phi)
	}
}

func TestBox3(t *testing.T) {
	b := BoxFromPoints([]Vec3{{-1, -2, -3}, {1, 2, 3}})
	if b.Center() != (Vec3{}) {
		t.Errorf("Center: got %v", b.Center())
	}
	if !b.ContainsPoint(Vec3{0.5, 1, -2}) {
		t.Error("ContainsPoint should include interior point")
	}
	if b.ContainsPoint(Vec3{2, 0, 0}) {
		t.Error("ContainsPoint should exclude exterior point")
	}

	moved := b.Transform(Translate(10, 0, 0))
	if moved.Min.X != 9 || moved.Max.X != 11 {
		t.Errorf("Transform: got %v", moved)
	}

	if !EmptyBox().IsEmpty() {
		t.Error("EmptyBox should be empty")
	}
	if s := EmptyBox().BoundingSphere(); s.Radius >= 0 {
		t.Errorf("empty bounding sphere radius: got %v", s.Radius)
	}
}
