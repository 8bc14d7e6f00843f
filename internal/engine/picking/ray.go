// Package picking provides ray casting and object picking utilities.
package picking

import (
	gomath "math"

	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.AddScaled(r.Direction, t)
}

// Transform returns the ray in the space m maps into. The direction is
// renormalized, so parameters are not preserved across spaces.
func (r Ray) Transform(m math.Mat4) Ray {
	return Ray{
		Origin:    m.TransformPoint(r.Origin),
		Direction: m.TransformDirection(r.Direction).Normalize(),
	}
}

// NDCToRay converts normalized device coordinates to a world-space ray
// starting on the near plane. invViewProj is the inverse of the
// view-projection matrix.
func NDCToRay(ndc math.Vec2, invViewProj math.Mat4) Ray {
	near := invViewProj.MulVec4(math.Vec4{ndc.X, ndc.Y, -1, 1}).XYZ()
	far := invViewProj.MulVec4(math.Vec4{ndc.X, ndc.Y, 1, 1}).XYZ()
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// CameraRay returns the world-space ray from the camera position through
// ndc, so hit parameters are distances from the camera.
func CameraRay(ndc math.Vec2, cam *camera.Perspective) Ray {
	origin := cam.Position()
	far := cam.Unproject(math.Vec3{X: ndc.X, Y: ndc.Y, Z: 1})
	return Ray{Origin: origin, Direction: far.Sub(origin).Normalize()}
}

// ScreenToRay converts pixel coordinates inside a viewport to a
// world-space ray.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndc := math.Vec2{
		X: 2*screenX/viewportW - 1,
		Y: 1 - 2*screenY/viewportH, // Flip Y
	}
	return NDCToRay(ndc, invViewProj)
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
// Returns the intersection point (X, Z) and whether the intersection is valid.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if gomath.Abs(float64(r.Direction.Y)) < 0.001 {
		return 0, 0, false // Ray parallel to plane
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return 0, 0, false // Intersection behind ray origin
	}

	p := r.At(t)
	return p.X, p.Z, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box math.Box3) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectSphere returns the nearest non-negative ray parameter at which
// the ray meets s.
func (r Ray) IntersectSphere(s math.Sphere) (t float32, hit bool) {
	if s.Radius < 0 {
		return 0, false
	}
	toCenter := s.Center.Sub(r.Origin)
	tca := toCenter.Dot(r.Direction)
	d2 := toCenter.LengthSquared() - tca*tca
	r2 := s.Radius * s.Radius
	if d2 > r2 {
		return 0, false
	}
	thc := float32(gomath.Sqrt(float64(r2 - d2)))
	t0, t1 := tca-thc, tca+thc
	if t1 < 0 {
		return 0, false
	}
	if t0 < 0 {
		return t1, true
	}
	return t0, true
}

// IntersectTriangle intersects the ray with triangle abc
// (Moller-Trumbore). Counter-clockwise triangles face the viewer; side
// selects which faces can be hit.
func (r Ray) IntersectTriangle(a, b, c math.Vec3, side graph.Side) (t float32, hit bool) {
	const epsilon = 1e-7

	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)

	switch {
	case det > -epsilon && det < epsilon:
		return 0, false
	case side == graph.SideFront && det < 0:
		return 0, false
	case side == graph.SideBack && det > 0:
		return 0, false
	}

	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = edge2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}
