package scene

import (
	"github.com/Faultbox/retroscene/internal/engine/controls"
	"github.com/Faultbox/retroscene/internal/engine/input"
)

var buttons = map[uint8]controls.Button{
	input.ButtonLeft:   controls.ButtonLeft,
	input.ButtonMiddle: controls.ButtonMiddle,
	input.ButtonRight:  controls.ButtonRight,
}

var arrowKeys = map[input.Key]controls.Key{
	input.KeyLeft:  controls.KeyLeft,
	input.KeyUp:    controls.KeyUp,
	input.KeyRight: controls.KeyRight,
	input.KeyDown:  controls.KeyDown,
}

// listen registers the scene's document listeners. DisposeAll removes
// them.
func (s *Scene) listen(r *input.Registry) {
	add := func(t input.EventType, fn input.Handler) {
		s.remove = append(s.remove, r.Add(t, func(ev input.Event) {
			if s.state == StateDisposed {
				return
			}
			fn(ev)
		}))
	}

	add(input.EventMouseDown, s.onPointerDown)
	add(input.EventMouseMove, s.onPointerMove)
	add(input.EventMouseUp, func(ev input.Event) {
		if b, ok := buttons[ev.Button]; ok {
			s.gesture(s.tracker.PointerUp(b))
		}
	})
	add(input.EventMouseWheel, func(ev input.Event) {
		s.gesture(s.tracker.Wheel(ev.WheelY))
	})
	add(input.EventKeyDown, func(ev input.Event) {
		if k, ok := arrowKeys[ev.Key]; ok {
			s.gesture(s.tracker.Key(k))
		}
	})
	add(input.EventFingerDown, func(ev input.Event) {
		s.gesture(s.tracker.TouchStart(ev.Finger, ev.X, ev.Y))
	})
	add(input.EventFingerMove, func(ev input.Event) {
		s.gesture(s.tracker.TouchMove(ev.Finger, ev.X, ev.Y))
	})
	add(input.EventFingerUp, func(ev input.Event) {
		s.gesture(s.tracker.TouchEnd(ev.Finger))
	})
}

func (s *Scene) gesture(g controls.Gesture, ok bool) {
	if ok {
		s.controls.ApplyGesture(g)
	}
}

// onPointerDown emits ModelClicked when the press lands on any mesh, then
// starts the drag gesture bound to the button.
func (s *Scene) onPointerDown(ev input.Event) {
	if s.HitTest(ev.X, ev.Y).OK() {
		s.emitModelClicked()
	}
	if b, ok := buttons[ev.Button]; ok {
		s.gesture(s.tracker.PointerDown(b, ev.X, ev.Y))
	}
}

// onPointerMove drives the hover highlight and any drag in progress.
func (s *Scene) onPointerMove(ev input.Event) {
	s.highlight.Hover(s.HitTest(ev.X, ev.Y), s.root)
	s.gesture(s.tracker.PointerMove(ev.X, ev.Y))
}
