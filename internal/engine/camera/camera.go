// Package camera provides the perspective camera used by the scene.
package camera

import (
	gomath "math"

	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
)

// Perspective is a perspective camera. Its pose lives on Node so the camera
// can be part of the scene graph.
type Perspective struct {
	Node *graph.Node

	FOV    float32 // vertical field of view, degrees
	Aspect float32
	Near   float32
	Far    float32
	Zoom   float32
	Up     math.Vec3

	projection    math.Mat4
	projectionInv math.Mat4
}

// NewPerspective creates a camera at the origin looking down -Z.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		Node:   graph.NewNode("camera", graph.KindCamera),
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Zoom:   1,
		Up:     math.Vec3{Y: 1},
	}
	c.UpdateProjection()
	return c
}

// SetAspect sets the aspect ratio and recomputes the projection.
func (c *Perspective) SetAspect(aspect float32) {
	c.Aspect = aspect
	c.UpdateProjection()
}

// UpdateProjection recomputes the projection matrix. Call it after changing
// FOV, Aspect, Near, Far or Zoom.
func (c *Perspective) UpdateProjection() {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	half := gomath.Tan(float64(c.FOV) * gomath.Pi / 360)
	fovY := float32(2 * gomath.Atan(half/float64(zoom)))
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = math.Perspective(fovY, aspect, c.Near, c.Far)
	c.projectionInv = c.projection.Inverse()
}

// Projection returns the projection matrix.
func (c *Perspective) Projection() math.Mat4 {
	return c.projection
}

// Position returns the camera position.
func (c *Perspective) Position() math.Vec3 {
	return c.Node.Position
}

// SetPosition moves the camera.
func (c *Perspective) SetPosition(p math.Vec3) {
	c.Node.Position = p
}

// Quaternion returns the camera orientation.
func (c *Perspective) Quaternion() math.Quat {
	return c.Node.Rotation
}

// LookAt orients the camera towards target.
func (c *Perspective) LookAt(target math.Vec3) {
	c.Node.Rotation = math.LookRotation(c.Node.Position, target, c.Up)
}

// Matrix returns the camera-to-world transform.
func (c *Perspective) Matrix() math.Mat4 {
	return math.Compose(c.Node.Position, c.Node.Rotation, math.Vec3{X: 1, Y: 1, Z: 1})
}

// View returns the world-to-camera transform.
func (c *Perspective) View() math.Mat4 {
	return c.Matrix().Inverse()
}

// ViewProjection returns Projection * View.
func (c *Perspective) ViewProjection() math.Mat4 {
	return c.projection.Mul(c.View())
}

// Unproject maps a point in normalized device coordinates to world space.
func (c *Perspective) Unproject(ndc math.Vec3) math.Vec3 {
	return c.Matrix().TransformPoint(c.projectionInv.TransformPoint(ndc))
}

// Direction returns the unit vector the camera looks along.
func (c *Perspective) Direction() math.Vec3 {
	return math.Vec3{Z: -1}.ApplyQuat(c.Node.Rotation).Normalize()
}
