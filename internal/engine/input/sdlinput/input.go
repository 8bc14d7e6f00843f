// Package sdlinput converts SDL2 events into input events.
package sdlinput

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/retroscene/internal/engine/input"
)

var keys = map[sdl.Scancode]input.Key{
	sdl.SCANCODE_ESCAPE: input.KeyEscape,
	sdl.SCANCODE_R:      input.KeyR,
	sdl.SCANCODE_G:      input.KeyG,
	sdl.SCANCODE_O:      input.KeyO,
	sdl.SCANCODE_F12:    input.KeyF12,
	sdl.SCANCODE_LEFT:   input.KeyLeft,
	sdl.SCANCODE_UP:     input.KeyUp,
	sdl.SCANCODE_RIGHT:  input.KeyRight,
	sdl.SCANCODE_DOWN:   input.KeyDown,
}

// Input handles all input processing.
type Input struct {
	events []input.Event

	// SizeFunc returns the window size; touch coordinates are scaled by
	// it. Without it finger events are dropped.
	SizeFunc func() (int, int)
}

// New creates a new input handler.
func New(size func() (int, int)) *Input {
	return &Input{
		events:   make([]input.Event, 0, 16),
		SizeFunc: size,
	}
}

// Update polls SDL events and converts them to input events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, input.Event{Type: input.EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, input.Event{
					Type:   input.EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			key, ok := keys[e.Keysym.Scancode]
			if !ok {
				continue
			}
			typ := input.EventKeyDown
			if e.Type == sdl.KEYUP {
				typ = input.EventKeyUp
			}
			i.events = append(i.events, input.Event{Type: typ, Key: key})

		case *sdl.MouseMotionEvent:
			if e.Which == sdl.TOUCH_MOUSEID {
				continue
			}
			i.events = append(i.events, input.Event{
				Type: input.EventMouseMove,
				X:    float32(e.X),
				Y:    float32(e.Y),
			})

		case *sdl.MouseButtonEvent:
			if e.Which == sdl.TOUCH_MOUSEID {
				continue
			}
			typ := input.EventMouseDown
			if e.Type == sdl.MOUSEBUTTONUP {
				typ = input.EventMouseUp
			}
			i.events = append(i.events, input.Event{
				Type:   typ,
				X:      float32(e.X),
				Y:      float32(e.Y),
				Button: e.Button,
			})

		case *sdl.MouseWheelEvent:
			dy := float32(e.Y)
			if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
				dy = -dy
			}
			i.events = append(i.events, input.Event{Type: input.EventMouseWheel, WheelY: dy})

		case *sdl.TouchFingerEvent:
			if i.SizeFunc == nil {
				continue
			}
			w, h := i.SizeFunc()
			var typ input.EventType
			switch e.Type {
			case sdl.FINGERDOWN:
				typ = input.EventFingerDown
			case sdl.FINGERMOTION:
				typ = input.EventFingerMove
			default:
				typ = input.EventFingerUp
			}
			i.events = append(i.events, input.Event{
				Type:   typ,
				X:      e.X * float32(w),
				Y:      e.Y * float32(h),
				Finger: int64(e.FingerID),
			})
		}
	}

	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []input.Event {
	return i.events
}

// Dispatch sends the events from the last Update to r.
func (i *Input) Dispatch(r *input.Registry) {
	for _, ev := range i.events {
		r.Dispatch(ev)
	}
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(key input.Key) bool {
	for _, e := range i.events {
		if e.Type == input.EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}
