package controls

import "github.com/Faultbox/retroscene/pkg/math"

// Phase marks where a gesture sits in a pointer interaction.
type Phase uint8

const (
	// PhaseNone is a discrete gesture such as a wheel step or key press.
	PhaseNone Phase = iota
	// PhaseStart begins a drag or touch; auto-rotation pauses until PhaseEnd.
	PhaseStart
	PhaseMove
	PhaseEnd
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseStart:
		return "start"
	case PhaseMove:
		return "move"
	case PhaseEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Gesture is an input delta for Controller.ApplyGesture. Rotate and Pan
// are pointer travel in pixels; Dolly is in zoom steps, positive moving the
// camera closer.
type Gesture struct {
	Phase  Phase
	Rotate math.Vec2
	Pan    math.Vec2
	Dolly  float32
}

// IsZero reports whether the gesture carries no motion.
func (g Gesture) IsZero() bool {
	return g.Rotate.IsZero() && g.Pan.IsZero() && g.Dolly == 0
}
