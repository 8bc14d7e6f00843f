package math

import "math"

// sphericalEPS keeps Phi away from the poles where the basis degenerates.
const sphericalEPS = 1e-6

// Spherical is a point in spherical coordinates around the origin.
// Phi is the polar angle measured from +Y, Theta the azimuth around +Y
// measured from +Z towards +X.
type Spherical struct {
	Radius float32
	Phi    float32
	Theta  float32
}

// SetFromVec3 computes the spherical coordinates of v.
func (s *Spherical) SetFromVec3(v Vec3) {
	s.Radius = v.Length()
	if s.Radius == 0 {
		s.Theta = 0
		s.Phi = 0
		return
	}
	s.Theta = float32(math.Atan2(float64(v.X), float64(v.Z)))
	s.Phi = float32(math.Acos(float64(Clamp(v.Y/s.Radius, -1, 1))))
}

// Vec3 converts back to Cartesian coordinates.
func (s Spherical) Vec3() Vec3 {
	sinPhi := float32(math.Sin(float64(s.Phi)))
	return Vec3{
		X: s.Radius * sinPhi * float32(math.Sin(float64(s.Theta))),
		Y: s.Radius * float32(math.Cos(float64(s.Phi))),
		Z: s.Radius * sinPhi * float32(math.Cos(float64(s.Theta))),
	}
}

// MakeSafe restricts Phi to (EPS, Pi-EPS).
func (s *Spherical) MakeSafe() {
	s.Phi = float32(math.Max(sphericalEPS, math.Min(math.Pi-sphericalEPS, float64(s.Phi))))
}
