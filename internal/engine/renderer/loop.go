package renderer

import "time"

// FrameFunc is called once per animation frame with the time since the
// host started ticking.
type FrameFunc func(now time.Duration)

// SetAnimationLoop registers fn as the per-frame callback, replacing any
// previous one. A nil fn stops the loop. Disposed renderers ignore it.
func (r *Renderer) SetAnimationLoop(fn FrameFunc) {
	if r.disposed {
		return
	}
	r.loop = fn
}

// Looping reports whether an animation callback is registered.
func (r *Renderer) Looping() bool {
	return r.loop != nil
}

// Tick runs the registered callback for one frame. The host calls it from
// its display loop; it reports whether a callback ran.
func (r *Renderer) Tick(now time.Duration) bool {
	if r.loop == nil {
		return false
	}
	r.dev.ResetFrameInfo()
	r.loop(now)
	return true
}
