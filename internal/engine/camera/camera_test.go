package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/retroscene/pkg/math"
)

func assertVec(t *testing.T, want, got math.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestLookAtDirection(t *testing.T) {
	c := NewPerspective(50, 1, 1, 1000)
	c.SetPosition(math.Vec3{X: 0, Y: 5, Z: 5})
	c.LookAt(math.Vec3{})

	want := math.Vec3{Y: -5, Z: -5}.Normalize()
	assertVec(t, want, c.Direction(), 1e-5)
}

func TestViewMovesTargetOntoAxis(t *testing.T) {
	c := NewPerspective(50, 16.0/9, 1, 1000)
	c.SetPosition(math.Vec3{X: 10, Y: 20, Z: 30})
	c.LookAt(math.Vec3{X: 1, Y: 2, Z: 3})

	p := c.View().TransformPoint(math.Vec3{X: 1, Y: 2, Z: 3})
	assert.InDelta(t, 0, p.X, 1e-3)
	assert.InDelta(t, 0, p.Y, 1e-3)
	assert.Less(t, p.Z, float32(0), "target should be in front of the camera")
}

func TestUnprojectCenter(t *testing.T) {
	c := NewPerspective(50, 1.5, 1, 1000)
	c.SetPosition(math.Vec3{Z: 10})
	c.LookAt(math.Vec3{})

	near := c.Unproject(math.Vec3{Z: -1})
	far := c.Unproject(math.Vec3{Z: 1})
	assertVec(t, math.Vec3{Z: 9}, near, 1e-3)
	assert.InDelta(t, -990, far.Z, 0.5)
}

func TestSetAspectUpdatesProjection(t *testing.T) {
	c := NewPerspective(50, 1, 1, 1000)
	before := c.Projection()
	c.SetAspect(2)
	after := c.Projection()

	assert.InDelta(t, before[0]/2, after[0], 1e-5)
	assert.Equal(t, before[5], after[5])
}

func TestZoomNarrowsFieldOfView(t *testing.T) {
	c := NewPerspective(50, 1, 1, 1000)
	f := c.Projection()[5]
	c.Zoom = 2
	c.UpdateProjection()
	assert.InDelta(t, f*2, c.Projection()[5], 1e-4)
}
