// Package controls implements an orbit camera controller with damping,
// angular, distance and pan limits.
package controls

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/pkg/math"
)

const (
	// moveEpsilon is the squared distance / rotation change below which
	// Update reports no movement.
	moveEpsilon = 1e-6

	// autoRotateStep is one revolution per minute at 60 fps and speed 1.
	autoRotateStep = 2 * gomath.Pi / 60 / 60

	zoomBase = 0.95
)

// ErrInvalidOptions is returned by New for inconsistent limits.
var ErrInvalidOptions = errors.New("controls: invalid options")

// Options configures a Controller. Pan limits bound the orbit target's x
// and y coordinates.
type Options struct {
	Enabled bool

	EnableDamping bool
	DampingFactor float32

	EnableZoom bool
	ZoomSpeed  float32
	MinZoom    float32
	MaxZoom    float32

	EnableRotate bool
	RotateSpeed  float32

	EnablePan          bool
	PanSpeed           float32
	ScreenSpacePanning bool

	AutoRotate      bool
	AutoRotateSpeed float32

	MinDistance float32
	MaxDistance float32

	MinPolarAngle   float32
	MaxPolarAngle   float32
	MinAzimuthAngle float32
	MaxAzimuthAngle float32

	MinXPan float32
	MaxXPan float32
	MinYPan float32
	MaxYPan float32

	// ZoomThreshold enables panning (screen-space) while the camera is at
	// most this far from the target and disables it beyond. Zero turns the
	// behavior off.
	ZoomThreshold float32

	Target math.Vec3
}

// DefaultOptions returns unrestricted orbit options.
func DefaultOptions() Options {
	inf := math.Inf()
	return Options{
		Enabled:         true,
		DampingFactor:   0.05,
		EnableZoom:      true,
		ZoomSpeed:       1,
		MaxZoom:         inf,
		EnableRotate:    true,
		RotateSpeed:     1,
		EnablePan:       true,
		PanSpeed:        1,
		AutoRotateSpeed: 2,
		MaxDistance:     inf,
		MaxPolarAngle:   gomath.Pi,
		MinAzimuthAngle: -inf,
		MaxAzimuthAngle: inf,
		MinXPan:         -inf,
		MaxXPan:         inf,
		MinYPan:         -inf,
		MaxYPan:         inf,
	}
}

// Validate checks that every min/max pair is ordered and the damping
// factor lies in (0, 1].
func (o Options) Validate() error {
	limits := []struct {
		name     string
		min, max float32
	}{
		{"polar angle", o.MinPolarAngle, o.MaxPolarAngle},
		{"azimuth angle", o.MinAzimuthAngle, o.MaxAzimuthAngle},
		{"distance", o.MinDistance, o.MaxDistance},
		{"zoom", o.MinZoom, o.MaxZoom},
		{"x pan", o.MinXPan, o.MaxXPan},
		{"y pan", o.MinYPan, o.MaxYPan},
	}
	for _, l := range limits {
		if isNaN(l.min) || isNaN(l.max) || l.min > l.max {
			return fmt.Errorf("%w: %s min %v > max %v", ErrInvalidOptions, l.name, l.min, l.max)
		}
	}
	if o.MinPolarAngle < 0 || o.MaxPolarAngle > gomath.Pi {
		return fmt.Errorf("%w: polar angle limits outside [0, pi]", ErrInvalidOptions)
	}
	if o.MinDistance < 0 {
		return fmt.Errorf("%w: negative min distance", ErrInvalidOptions)
	}
	if o.DampingFactor <= 0 || o.DampingFactor > 1 {
		return fmt.Errorf("%w: damping factor %v outside (0, 1]", ErrInvalidOptions, o.DampingFactor)
	}
	return nil
}

func isNaN(f float32) bool {
	return f != f
}

// Controller orbits a perspective camera around a target.
// Not safe for concurrent use; drive it from the render thread.
type Controller struct {
	cam  *camera.Perspective
	opts Options

	target    math.Vec3
	target0   math.Vec3
	position0 math.Vec3
	zoom0     float32

	spherical      math.Spherical
	sphericalDelta math.Spherical
	panOffset      math.Vec3
	scale          float32
	zoomChanged    bool
	active         bool

	lastPosition   math.Vec3
	lastQuaternion math.Quat

	viewportHeight float32
	listeners      []func()
	disposed       bool
}

// New creates a controller for cam. The camera's current pose and
// opts.Target become the baseline restored by Reset.
func New(cam *camera.Perspective, opts Options) (*Controller, error) {
	if cam == nil {
		return nil, fmt.Errorf("%w: nil camera", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cam:            cam,
		opts:           opts,
		target:         opts.Target,
		scale:          1,
		viewportHeight: 1,
	}
	c.SaveState()
	return c, nil
}

// Options returns the current options.
func (c *Controller) Options() Options {
	return c.opts
}

// Target returns the orbit target.
func (c *Controller) Target() math.Vec3 {
	return c.target
}

// SetTarget moves the orbit target without applying pan limits.
func (c *Controller) SetTarget(t math.Vec3) {
	c.target = t
}

// SetAutoRotate toggles auto-rotation.
func (c *Controller) SetAutoRotate(on bool) {
	c.opts.AutoRotate = on
}

// SetEnabled toggles gesture handling.
func (c *Controller) SetEnabled(on bool) {
	c.opts.Enabled = on
}

// SetViewport sets the surface size used to turn pixel travel into angles.
func (c *Controller) SetViewport(width, height int) {
	c.viewportHeight = float32(max(height, 1))
}

// PolarAngle returns the current polar angle from +Y.
func (c *Controller) PolarAngle() float32 {
	return c.spherical.Phi
}

// AzimuthalAngle returns the current azimuth around +Y.
func (c *Controller) AzimuthalAngle() float32 {
	return c.spherical.Theta
}

// Distance returns the camera distance to the target.
func (c *Controller) Distance() float32 {
	return c.cam.Position().Distance(c.target)
}

// Active reports whether a drag or touch gesture is in progress.
func (c *Controller) Active() bool {
	return c.active
}

// OnChange registers fn to run whenever Update moves the camera or Reset
// restores the baseline.
func (c *Controller) OnChange(fn func()) {
	c.listeners = append(c.listeners, fn)
}

// SaveState records the current target, camera position and zoom as the
// baseline for Reset.
func (c *Controller) SaveState() {
	c.target0 = c.target
	c.position0 = c.cam.Position()
	c.zoom0 = c.cam.Zoom
}

// Reset restores the saved baseline, drops pending gesture energy and
// runs one Update.
func (c *Controller) Reset() {
	if c.disposed {
		return
	}
	c.target = c.target0
	c.cam.SetPosition(c.position0)
	if c.cam.Zoom != c.zoom0 {
		c.cam.Zoom = c.zoom0
		c.zoomChanged = true
	}
	c.cam.UpdateProjection()

	c.sphericalDelta = math.Spherical{}
	c.panOffset = math.Vec3{}
	c.scale = 1
	c.notify()

	c.Update()
	c.active = false
}

// ApplyGesture accumulates a gesture for the next Update.
func (c *Controller) ApplyGesture(g Gesture) {
	if c.disposed || !c.opts.Enabled {
		return
	}
	switch g.Phase {
	case PhaseStart:
		c.active = true
	case PhaseEnd:
		c.active = false
	}

	if c.opts.EnableRotate && !g.Rotate.IsZero() {
		c.rotate(g.Rotate)
	}
	if c.opts.EnablePan && !g.Pan.IsZero() {
		c.pan(g.Pan.Scale(c.opts.PanSpeed))
	}
	if c.opts.EnableZoom && g.Dolly != 0 {
		c.dolly(g.Dolly)
	}
}

func (c *Controller) rotate(delta math.Vec2) {
	k := 2 * gomath.Pi / float64(c.viewportHeight) * float64(c.opts.RotateSpeed)
	c.sphericalDelta.Theta -= float32(k * float64(delta.X))
	c.sphericalDelta.Phi -= float32(k * float64(delta.Y))
}

func (c *Controller) pan(delta math.Vec2) {
	offset := c.cam.Position().Sub(c.target)
	targetDistance := offset.Length() * float32(gomath.Tan(float64(c.cam.FOV)/2*gomath.Pi/180))

	m := c.cam.Matrix()
	left := 2 * delta.X * targetDistance / c.viewportHeight
	c.panOffset = c.panOffset.AddScaled(m.Column(0), -left)

	up := 2 * delta.Y * targetDistance / c.viewportHeight
	var v math.Vec3
	if c.opts.ScreenSpacePanning {
		v = m.Column(1)
	} else {
		v = c.cam.Up.Cross(m.Column(0))
	}
	c.panOffset = c.panOffset.AddScaled(v, up)
}

func (c *Controller) dolly(steps float32) {
	zoomScale := gomath.Pow(zoomBase, float64(c.opts.ZoomSpeed))
	c.scale *= float32(gomath.Pow(zoomScale, float64(steps)))
}

// Update advances the controller by one frame and reports whether the
// camera moved.
func (c *Controller) Update() bool {
	if c.disposed {
		return false
	}
	o := &c.opts

	quat := math.QuatFromUnitVectors(c.cam.Up.Normalize(), math.Vec3{Y: 1})
	quatInverse := quat.Invert()

	offset := c.cam.Position().Sub(c.target).ApplyQuat(quat)
	c.spherical.SetFromVec3(offset)

	if o.AutoRotate && !c.active {
		c.sphericalDelta.Theta -= autoRotateStep * o.AutoRotateSpeed
	}

	if o.EnableDamping {
		c.spherical.Theta += c.sphericalDelta.Theta * o.DampingFactor
		c.spherical.Phi += c.sphericalDelta.Phi * o.DampingFactor
	} else {
		c.spherical.Theta += c.sphericalDelta.Theta
		c.spherical.Phi += c.sphericalDelta.Phi
	}

	c.spherical.Theta = math.Clamp(c.spherical.Theta, o.MinAzimuthAngle, o.MaxAzimuthAngle)
	c.spherical.Phi = math.Clamp(c.spherical.Phi, o.MinPolarAngle, o.MaxPolarAngle)
	c.spherical.MakeSafe()

	c.spherical.Radius *= c.scale
	c.spherical.Radius = math.Clamp(c.spherical.Radius, o.MinDistance, o.MaxDistance)

	// The whole step is rejected when it would leave the pan box.
	step := c.panOffset
	if o.EnableDamping {
		step = step.Scale(o.DampingFactor)
	}
	next := c.target.Add(step)
	if next.X >= o.MinXPan && next.X <= o.MaxXPan && next.Y >= o.MinYPan && next.Y <= o.MaxYPan {
		c.target = next
	}

	offset = c.spherical.Vec3().ApplyQuat(quatInverse)
	c.cam.SetPosition(c.target.Add(offset))
	c.cam.LookAt(c.target)

	if o.EnableDamping {
		decay := 1 - o.DampingFactor
		c.sphericalDelta.Theta *= decay
		c.sphericalDelta.Phi *= decay
		c.panOffset = c.panOffset.Scale(decay)
	} else {
		c.sphericalDelta = math.Spherical{}
		c.panOffset = math.Vec3{}
	}
	c.scale = 1

	pos := c.cam.Position()
	rot := c.cam.Quaternion()
	if c.zoomChanged ||
		c.lastPosition.DistanceSquared(pos) > moveEpsilon ||
		8*(1-c.lastQuaternion.Dot(rot)) > moveEpsilon {
		c.lastPosition = pos
		c.lastQuaternion = rot
		c.zoomChanged = false
		c.applyZoomThreshold()
		c.notify()
		return true
	}
	return false
}

// applyZoomThreshold enables screen-space panning close to the target and
// disables panning further out.
func (c *Controller) applyZoomThreshold() {
	if c.opts.ZoomThreshold <= 0 {
		return
	}
	near := c.Distance() <= c.opts.ZoomThreshold
	c.opts.EnablePan = near
	c.opts.ScreenSpacePanning = near
}

func (c *Controller) notify() {
	for _, fn := range c.listeners {
		fn()
	}
}

// Dispose drops listeners and turns every further call into a no-op.
func (c *Controller) Dispose() {
	c.disposed = true
	c.listeners = nil
	c.active = false
}

// Disposed reports whether Dispose was called.
func (c *Controller) Disposed() bool {
	return c.disposed
}
