package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/retroscene/pkg/math"
)

func TestTrackerButtonBindings(t *testing.T) {
	tests := []struct {
		name   string
		button Button
		check  func(t *testing.T, g Gesture)
	}{
		{"left pans", ButtonLeft, func(t *testing.T, g Gesture) {
			assert.Equal(t, math.Vec2{X: 5, Y: -3}, g.Pan)
			assert.True(t, g.Rotate.IsZero())
		}},
		{"right rotates", ButtonRight, func(t *testing.T, g Gesture) {
			assert.Equal(t, math.Vec2{X: 5, Y: -3}, g.Rotate)
			assert.True(t, g.Pan.IsZero())
		}},
		{"middle dollies", ButtonMiddle, func(t *testing.T, g Gesture) {
			assert.Equal(t, float32(3), g.Dolly)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(DefaultBindings())

			g, ok := tr.PointerDown(tt.button, 10, 10)
			assert.True(t, ok)
			assert.Equal(t, PhaseStart, g.Phase)

			g, ok = tr.PointerMove(15, 7)
			assert.True(t, ok)
			assert.Equal(t, PhaseMove, g.Phase)
			tt.check(t, g)

			g, ok = tr.PointerUp(tt.button)
			assert.True(t, ok)
			assert.Equal(t, PhaseEnd, g.Phase)

			_, ok = tr.PointerMove(20, 20)
			assert.False(t, ok, "moves after release are ignored")
		})
	}
}

func TestTrackerIgnoresSecondButton(t *testing.T) {
	tr := NewTracker(DefaultBindings())
	_, ok := tr.PointerDown(ButtonLeft, 0, 0)
	assert.True(t, ok)
	_, ok = tr.PointerDown(ButtonRight, 0, 0)
	assert.False(t, ok)
}

func TestTrackerWheel(t *testing.T) {
	tr := NewTracker(DefaultBindings())

	g, ok := tr.Wheel(2)
	assert.True(t, ok)
	assert.Equal(t, float32(1), g.Dolly)

	g, _ = tr.Wheel(-1)
	assert.Equal(t, float32(-1), g.Dolly)

	_, ok = tr.Wheel(0)
	assert.False(t, ok)
}

func TestTrackerKeys(t *testing.T) {
	tr := NewTracker(DefaultBindings())
	tests := []struct {
		key  Key
		want math.Vec2
	}{
		{KeyUp, math.Vec2{Y: 7}},
		{KeyDown, math.Vec2{Y: -7}},
		{KeyLeft, math.Vec2{X: 7}},
		{KeyRight, math.Vec2{X: -7}},
	}
	for _, tt := range tests {
		g, ok := tr.Key(tt.key)
		assert.True(t, ok)
		assert.Equal(t, tt.want, g.Pan)
	}

	b := DefaultBindings()
	b.EnableKeys = false
	_, ok := NewTracker(b).Key(KeyUp)
	assert.False(t, ok)
}

func TestTrackerOneFingerRotates(t *testing.T) {
	tr := NewTracker(DefaultBindings())

	g, ok := tr.TouchStart(1, 100, 100)
	assert.True(t, ok)
	assert.Equal(t, PhaseStart, g.Phase)

	g, ok = tr.TouchMove(1, 110, 95)
	assert.True(t, ok)
	assert.Equal(t, math.Vec2{X: 10, Y: -5}, g.Rotate)

	g, ok = tr.TouchEnd(1)
	assert.True(t, ok)
	assert.Equal(t, PhaseEnd, g.Phase)
}

func TestTrackerPinch(t *testing.T) {
	tr := NewTracker(DefaultBindings())
	tr.TouchStart(1, 100, 100)
	_, ok := tr.TouchStart(2, 200, 100)
	assert.False(t, ok, "second finger does not restart the gesture")

	g, ok := tr.TouchMove(2, 300, 100)
	assert.True(t, ok)
	assert.Greater(t, g.Dolly, float32(0), "spreading fingers moves closer")
	assert.Equal(t, math.Vec2{X: 50}, g.Pan, "midpoint travel pans")

	g, ok = tr.TouchMove(2, 200, 100)
	assert.True(t, ok)
	assert.Less(t, g.Dolly, float32(0))

	_, ok = tr.TouchEnd(2)
	assert.False(t, ok)
	g, ok = tr.TouchEnd(1)
	assert.True(t, ok)
	assert.Equal(t, PhaseEnd, g.Phase)
}

func TestTrackerCancel(t *testing.T) {
	tr := NewTracker(DefaultBindings())
	tr.PointerDown(ButtonLeft, 0, 0)
	tr.Cancel()
	_, ok := tr.PointerMove(10, 10)
	assert.False(t, ok)
	_, ok = tr.PointerDown(ButtonRight, 0, 0)
	assert.True(t, ok)
}
