package controls

import (
	"errors"
	gomath "math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/pkg/math"
)

func newTestController(t *testing.T, pos math.Vec3, mutate func(*Options)) (*Controller, *camera.Perspective) {
	t.Helper()
	cam := camera.NewPerspective(50, 4.0/3, 1, 1000)
	cam.SetPosition(pos)

	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(cam, opts)
	require.NoError(t, err)
	c.SetViewport(800, 600)
	c.Update()
	return c, cam
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	nan := float32(gomath.NaN())
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"polar", func(o *Options) { o.MinPolarAngle, o.MaxPolarAngle = 2, 1 }},
		{"polar out of range", func(o *Options) { o.MaxPolarAngle = 4 }},
		{"azimuth", func(o *Options) { o.MinAzimuthAngle, o.MaxAzimuthAngle = 1, -1 }},
		{"distance", func(o *Options) { o.MinDistance, o.MaxDistance = 300, 50 }},
		{"negative distance", func(o *Options) { o.MinDistance = -1 }},
		{"zoom", func(o *Options) { o.MinZoom, o.MaxZoom = 2, 1 }},
		{"x pan", func(o *Options) { o.MinXPan, o.MaxXPan = 10, -10 }},
		{"y pan", func(o *Options) { o.MinYPan, o.MaxYPan = 250, 35 }},
		{"nan limit", func(o *Options) { o.MaxDistance = nan }},
		{"zero damping", func(o *Options) { o.DampingFactor = 0 }},
		{"damping above one", func(o *Options) { o.DampingFactor = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := New(camera.NewPerspective(50, 1, 1, 1000), opts)
			assert.True(t, errors.Is(err, ErrInvalidOptions), "got %v", err)
		})
	}

	_, err := New(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestLockedPolarAngle(t *testing.T) {
	half := float32(gomath.Pi / 2)
	c, _ := newTestController(t, math.Vec3{X: 0, Y: 5, Z: 5}, func(o *Options) {
		o.MinPolarAngle, o.MaxPolarAngle = half, half
		o.EnableDamping, o.DampingFactor = true, 0.75
	})
	assert.Equal(t, half, c.PolarAngle())

	c.ApplyGesture(Gesture{Phase: PhaseStart})
	for i := 0; i < 20; i++ {
		c.ApplyGesture(Gesture{Phase: PhaseMove, Rotate: math.Vec2{X: 13, Y: -90}})
		c.Update()
		require.Equal(t, half, c.PolarAngle(), "frame %d", i)
	}
	c.ApplyGesture(Gesture{Phase: PhaseEnd})
	for i := 0; i < 10; i++ {
		c.Update()
		require.Equal(t, half, c.PolarAngle())
	}
}

func TestDistanceClamped(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, func(o *Options) {
		o.MinDistance, o.MaxDistance = 50, 300
		o.ZoomSpeed = 0.5
	})

	for i := 0; i < 200; i++ {
		c.ApplyGesture(Gesture{Dolly: 5})
		c.Update()
		assert.GreaterOrEqual(t, c.spherical.Radius, float32(50))
	}
	assert.InDelta(t, 50, c.Distance(), 1e-3)

	for i := 0; i < 200; i++ {
		c.ApplyGesture(Gesture{Dolly: -5})
		c.Update()
		assert.LessOrEqual(t, c.spherical.Radius, float32(300))
	}
	assert.InDelta(t, 300, c.Distance(), 1e-2)
}

func TestDollyDirection(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, nil)

	c.ApplyGesture(Gesture{Dolly: 1})
	c.Update()
	assert.InDelta(t, 95, c.Distance(), 1e-3)

	c.ApplyGesture(Gesture{Dolly: -1})
	c.Update()
	assert.InDelta(t, 100, c.Distance(), 1e-3)
}

func TestAzimuthClamped(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, func(o *Options) {
		o.MinAzimuthAngle, o.MaxAzimuthAngle = -0.5, 0.5
	})

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		c.ApplyGesture(Gesture{Rotate: math.Vec2{X: rng.Float32()*800 - 400, Y: rng.Float32()*200 - 100}})
		c.Update()
		assert.GreaterOrEqual(t, c.AzimuthalAngle(), float32(-0.5))
		assert.LessOrEqual(t, c.AzimuthalAngle(), float32(0.5))
		assert.GreaterOrEqual(t, c.PolarAngle(), float32(0))
		assert.LessOrEqual(t, c.PolarAngle(), float32(gomath.Pi))
	}
}

func TestRotateGestureAngle(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, nil)
	before := c.AzimuthalAngle()

	c.ApplyGesture(Gesture{Rotate: math.Vec2{X: 60}})
	c.Update()

	want := before - float32(2*gomath.Pi*60/600)
	assert.InDelta(t, want, c.AzimuthalAngle(), 1e-4)
}

func TestPanStaysInsideBox(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Y: 50, Z: 100}, func(o *Options) {
		o.Target = math.Vec3{Y: 50}
		o.MinXPan, o.MaxXPan = -20, 20
		o.MinYPan, o.MaxYPan = 35, 80
		o.ScreenSpacePanning = true
		o.EnableDamping, o.DampingFactor = true, 0.75
	})

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		prev := c.Target()
		c.ApplyGesture(Gesture{Pan: math.Vec2{X: rng.Float32()*400 - 200, Y: rng.Float32()*400 - 200}})
		c.Update()

		got := c.Target()
		inside := got.X >= -20 && got.X <= 20 && got.Y >= 35 && got.Y <= 80
		require.True(t, inside || got == prev, "frame %d: target %v left the box", i, got)
	}
}

func TestPanRejectedOutright(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Y: 35, Z: 100}, func(o *Options) {
		o.Target = math.Vec3{Y: 35}
		o.MinYPan, o.MaxYPan = 35, 250
		o.ScreenSpacePanning = true
	})
	start := c.Target()

	// Dragging up moves the target down, below the box floor.
	c.ApplyGesture(Gesture{Pan: math.Vec2{X: -50, Y: -50}})
	c.Update()
	assert.Equal(t, start, c.Target(), "the x component must not be applied alone")

	c.ApplyGesture(Gesture{Pan: math.Vec2{Y: 40}})
	c.Update()
	assert.Greater(t, c.Target().Y, start.Y)
}

func TestUpdateReportsMovement(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, nil)
	assert.False(t, c.Update(), "idle controller should not report movement")

	c.ApplyGesture(Gesture{Rotate: math.Vec2{X: 10}})
	assert.True(t, c.Update())
	assert.False(t, c.Update())
}

func TestAutoRotatePausesDuringGesture(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, func(o *Options) {
		o.AutoRotate = true
		o.AutoRotateSpeed = 2
	})

	c.ApplyGesture(Gesture{Phase: PhaseStart})
	assert.True(t, c.Active())
	before := c.AzimuthalAngle()
	assert.False(t, c.Update())
	assert.InDelta(t, before, c.AzimuthalAngle(), 1e-6)

	c.ApplyGesture(Gesture{Phase: PhaseEnd})
	assert.True(t, c.Update())
	assert.InDelta(t, before-float32(autoRotateStep*2), c.AzimuthalAngle(), 1e-5)
}

func TestDampingDecays(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, func(o *Options) {
		o.EnableDamping, o.DampingFactor = true, 0.5
	})

	c.ApplyGesture(Gesture{Rotate: math.Vec2{X: 100}})
	moves := 0
	for i := 0; i < 100 && c.Update(); i++ {
		moves++
	}
	assert.Greater(t, moves, 1, "damped motion should continue after the gesture")
	for i := 0; i < 50; i++ {
		c.Update()
	}
	assert.False(t, c.Update(), "motion should settle")
}

func TestResetRestoresBaseline(t *testing.T) {
	c, cam := newTestController(t, math.Vec3{Y: 10, Z: 100}, nil)
	c.SaveState()
	baseline := cam.Position()

	changes := 0
	c.OnChange(func() { changes++ })

	c.ApplyGesture(Gesture{Rotate: math.Vec2{X: 200, Y: 40}, Dolly: 3})
	c.Update()
	require.Greater(t, cam.Position().Distance(baseline), float32(1))

	changes = 0
	c.Reset()
	assert.InDelta(t, 0, cam.Position().Distance(baseline), 1e-3)
	assert.GreaterOrEqual(t, changes, 1)
	assert.False(t, c.Active())
	assert.False(t, c.Update(), "reset drops pending gesture energy")
}

func TestZoomThresholdTogglesPanning(t *testing.T) {
	c, _ := newTestController(t, math.Vec3{Z: 100}, func(o *Options) {
		o.EnablePan = false
		o.ZoomThreshold = 500
	})
	assert.True(t, c.Options().EnablePan)
	assert.True(t, c.Options().ScreenSpacePanning)

	for i := 0; i < 100 && c.Distance() <= 500; i++ {
		c.ApplyGesture(Gesture{Dolly: -10})
		c.Update()
	}
	require.Greater(t, c.Distance(), float32(500))
	assert.False(t, c.Options().EnablePan)
	assert.False(t, c.Options().ScreenSpacePanning)
}

func TestDisabledAndDisposed(t *testing.T) {
	c, cam := newTestController(t, math.Vec3{Z: 100}, nil)
	pos := cam.Position()

	c.SetEnabled(false)
	c.ApplyGesture(Gesture{Rotate: math.Vec2{X: 300}})
	assert.False(t, c.Update())
	assert.InDelta(t, 0, pos.Distance(cam.Position()), 1e-3)
	pos = cam.Position()

	c.SetEnabled(true)
	called := false
	c.OnChange(func() { called = true })
	c.Dispose()
	assert.True(t, c.Disposed())

	c.ApplyGesture(Gesture{Rotate: math.Vec2{X: 300}})
	assert.False(t, c.Update())
	c.Reset()
	assert.False(t, called)
	assert.Equal(t, pos, cam.Position())
}
