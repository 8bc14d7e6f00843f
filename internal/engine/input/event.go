// Package input defines host input events and the listener registry the
// scene subscribes to.
package input

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
	EventFingerDown
	EventFingerMove
	EventFingerUp
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventQuit:
		return "quit"
	case EventWindowResize:
		return "resize"
	case EventKeyDown:
		return "keydown"
	case EventKeyUp:
		return "keyup"
	case EventMouseMove:
		return "mousemove"
	case EventMouseDown:
		return "mousedown"
	case EventMouseUp:
		return "mouseup"
	case EventMouseWheel:
		return "wheel"
	case EventFingerDown:
		return "touchstart"
	case EventFingerMove:
		return "touchmove"
	case EventFingerUp:
		return "touchend"
	default:
		return "none"
	}
}

// Key is a keyboard key the viewer reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyR
	KeyG
	KeyO
	KeyF12
	KeyLeft
	KeyUp
	KeyRight
	KeyDown
)

// Mouse buttons, numbered as SDL numbers them.
const (
	ButtonLeft   uint8 = 1
	ButtonMiddle uint8 = 2
	ButtonRight  uint8 = 3
)

// Event represents a processed input event. Pointer coordinates are in
// window pixels; finger coordinates are converted to window pixels too.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
	X, Y   float32
	Button uint8
	WheelY float32 // positive scrolls away from the user
	Finger int64
}
