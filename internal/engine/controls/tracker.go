package controls

import (
	gomath "math"

	"github.com/Faultbox/retroscene/pkg/math"
)

// Action is what a pointer button or touch count does.
type Action uint8

const (
	ActionNone Action = iota
	ActionRotate
	ActionDolly
	ActionPan
	ActionDollyPan
)

// Button is a mouse button.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Key is an arrow key used for keyboard panning.
type Key uint8

const (
	KeyLeft Key = iota
	KeyUp
	KeyRight
	KeyDown
)

// Bindings maps buttons, touch counts and keys to actions.
type Bindings struct {
	Left, Middle, Right Action
	OneFinger           Action
	TwoFingers          Action
	EnableKeys          bool
	KeyPanSpeed         float32 // pixels per key press
	DollyPixels         float32 // vertical drag travel per dolly step
}

// DefaultBindings pans with the left button, dollies with the middle and
// rotates with the right; one finger rotates, two fingers dolly and pan.
func DefaultBindings() Bindings {
	return Bindings{
		Left:        ActionPan,
		Middle:      ActionDolly,
		Right:       ActionRotate,
		OneFinger:   ActionRotate,
		TwoFingers:  ActionDollyPan,
		EnableKeys:  true,
		KeyPanSpeed: 7,
		DollyPixels: 1,
	}
}

type touch struct {
	id  int64
	pos math.Vec2
}

// Tracker turns raw pointer, wheel, touch and key input into Gestures.
// It holds only the in-progress drag state.
type Tracker struct {
	bindings Bindings

	action  Action
	last    math.Vec2
	touches []touch

	pinchDistance float32
	pinchCenter   math.Vec2
}

// NewTracker creates a tracker with the given bindings.
func NewTracker(b Bindings) *Tracker {
	if b.DollyPixels <= 0 {
		b.DollyPixels = 1
	}
	return &Tracker{bindings: b}
}

func (t *Tracker) buttonAction(b Button) Action {
	switch b {
	case ButtonLeft:
		return t.bindings.Left
	case ButtonMiddle:
		return t.bindings.Middle
	case ButtonRight:
		return t.bindings.Right
	default:
		return ActionNone
	}
}

// PointerDown starts a drag for button at (x, y).
func (t *Tracker) PointerDown(b Button, x, y float32) (Gesture, bool) {
	if t.action != ActionNone || len(t.touches) > 0 {
		return Gesture{}, false
	}
	t.action = t.buttonAction(b)
	if t.action == ActionNone {
		return Gesture{}, false
	}
	t.last = math.Vec2{X: x, Y: y}
	return Gesture{Phase: PhaseStart}, true
}

// PointerMove continues the current drag.
func (t *Tracker) PointerMove(x, y float32) (Gesture, bool) {
	if t.action == ActionNone {
		return Gesture{}, false
	}
	pos := math.Vec2{X: x, Y: y}
	delta := pos.Sub(t.last)
	t.last = pos

	g := Gesture{Phase: PhaseMove}
	switch t.action {
	case ActionRotate:
		g.Rotate = delta
	case ActionPan:
		g.Pan = delta
	case ActionDolly:
		// Dragging down moves away from the target.
		g.Dolly = -delta.Y / t.bindings.DollyPixels
	}
	return g, !g.IsZero()
}

// PointerUp ends the current drag.
func (t *Tracker) PointerUp(Button) (Gesture, bool) {
	if t.action == ActionNone {
		return Gesture{}, false
	}
	t.action = ActionNone
	return Gesture{Phase: PhaseEnd}, true
}

// Wheel converts a wheel movement into dolly steps; scrolling up (positive
// dy) moves closer.
func (t *Tracker) Wheel(dy float32) (Gesture, bool) {
	if dy == 0 {
		return Gesture{}, false
	}
	steps := float32(1)
	if dy < 0 {
		steps = -1
	}
	return Gesture{Dolly: steps}, true
}

// Key converts an arrow key into a pan of KeyPanSpeed pixels.
func (t *Tracker) Key(k Key) (Gesture, bool) {
	if !t.bindings.EnableKeys {
		return Gesture{}, false
	}
	s := t.bindings.KeyPanSpeed
	var pan math.Vec2
	switch k {
	case KeyUp:
		pan = math.Vec2{Y: s}
	case KeyDown:
		pan = math.Vec2{Y: -s}
	case KeyLeft:
		pan = math.Vec2{X: s}
	case KeyRight:
		pan = math.Vec2{X: -s}
	default:
		return Gesture{}, false
	}
	return Gesture{Pan: pan}, true
}

// TouchStart adds a finger.
func (t *Tracker) TouchStart(id int64, x, y float32) (Gesture, bool) {
	if t.action != ActionNone {
		return Gesture{}, false
	}
	first := len(t.touches) == 0
	t.touches = append(t.touches, touch{id: id, pos: math.Vec2{X: x, Y: y}})
	t.resetPinch()
	if first {
		return Gesture{Phase: PhaseStart}, true
	}
	return Gesture{}, false
}

// TouchMove moves a finger.
func (t *Tracker) TouchMove(id int64, x, y float32) (Gesture, bool) {
	i := t.touchIndex(id)
	if i < 0 {
		return Gesture{}, false
	}
	pos := math.Vec2{X: x, Y: y}
	prev := t.touches[i].pos
	t.touches[i].pos = pos

	g := Gesture{Phase: PhaseMove}
	switch len(t.touches) {
	case 1:
		delta := pos.Sub(prev)
		switch t.bindings.OneFinger {
		case ActionRotate:
			g.Rotate = delta
		case ActionPan:
			g.Pan = delta
		}
	case 2:
		distance, center := t.pinch()
		if t.bindings.TwoFingers == ActionDollyPan || t.bindings.TwoFingers == ActionDolly {
			if t.pinchDistance > 0 && distance > 0 {
				// Steps such that the distance scales by the inverse finger
				// spread ratio at zoom speed 1.
				g.Dolly = float32(gomath.Log(float64(distance/t.pinchDistance)) / -gomath.Log(zoomBase))
			}
		}
		if t.bindings.TwoFingers == ActionDollyPan || t.bindings.TwoFingers == ActionPan {
			g.Pan = center.Sub(t.pinchCenter)
		}
		t.pinchDistance, t.pinchCenter = distance, center
	}
	return g, !g.IsZero()
}

// TouchEnd lifts a finger; the gesture ends when the last finger lifts.
func (t *Tracker) TouchEnd(id int64) (Gesture, bool) {
	i := t.touchIndex(id)
	if i < 0 {
		return Gesture{}, false
	}
	t.touches = append(t.touches[:i], t.touches[i+1:]...)
	t.resetPinch()
	if len(t.touches) == 0 {
		return Gesture{Phase: PhaseEnd}, true
	}
	return Gesture{}, false
}

// Cancel drops any in-progress drag or touch.
func (t *Tracker) Cancel() {
	t.action = ActionNone
	t.touches = nil
}

func (t *Tracker) touchIndex(id int64) int {
	for i, tc := range t.touches {
		if tc.id == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) resetPinch() {
	if len(t.touches) == 2 {
		t.pinchDistance, t.pinchCenter = t.pinch()
	}
}

func (t *Tracker) pinch() (float32, math.Vec2) {
	a, b := t.touches[0].pos, t.touches[1].pos
	return b.Sub(a).Length(), a.Add(b).Scale(0.5)
}
