// Package perf measures frame rate and renderer load for the overlay.
package perf

import (
	"fmt"
	gomath "math"
	"strings"
	"time"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
)

// Breakpoint is the window width above which Text uses one line.
const Breakpoint = 900

// window is how long frames are averaged before the FPS figure updates.
const window = 500 * time.Millisecond

// Stats is one overlay sample.
type Stats struct {
	FPS        int
	Calls      int
	Triangles  int
	Geometries int
	Textures   int
}

// Monitor accumulates frame times. A disabled monitor ignores every call.
type Monitor struct {
	enabled bool

	started bool
	last    time.Duration
	frames  int
	accum   time.Duration
	fps     int

	stats Stats
}

// NewMonitor creates a monitor.
func NewMonitor(enabled bool) *Monitor {
	return &Monitor{enabled: enabled}
}

// Enabled reports whether the monitor records frames.
func (m *Monitor) Enabled() bool {
	return m.enabled
}

// EndFrame records a frame finished at now with the renderer's counters.
func (m *Monitor) EndFrame(now time.Duration, info gpu.Info) {
	if !m.enabled {
		return
	}
	if !m.started {
		m.started = true
		m.last = now
	}
	m.accum += now - m.last
	m.last = now
	m.frames++
	if m.accum >= window {
		m.fps = int(gomath.Round(float64(m.frames) * float64(time.Second) / float64(m.accum)))
		m.frames = 0
		m.accum = 0
	}
	m.stats = Stats{
		FPS:        m.fps,
		Calls:      info.Calls,
		Triangles:  info.Triangles,
		Geometries: info.Geometries,
		Textures:   info.Textures,
	}
}

// Stats returns the latest sample.
func (m *Monitor) Stats() Stats {
	return m.stats
}

// Text formats the latest sample for a window of the given width: one
// line when wider than Breakpoint, two otherwise. Disabled monitors
// return "".
func (m *Monitor) Text(width int) string {
	if !m.enabled {
		return ""
	}
	s := m.stats
	if width > Breakpoint {
		return fmt.Sprintf("FPS: %3d  |  Calls: %3d  |  Triangles: %7d  |  Geometries: %4d  |  Textures: %3d",
			s.FPS, s.Calls, s.Triangles, s.Geometries, s.Textures)
	}
	return fmt.Sprintf("FPS: %3d | Calls: %3d | Tris: %7d\nGeos: %4d | Texs: %3d",
		s.FPS, s.Calls, s.Triangles, s.Geometries, s.Textures)
}

// Bar renders value/limit as a ten-cell bar.
func Bar(value, limit int) string {
	const cells = 10
	filled := 0
	if limit > 0 {
		filled = int(gomath.Round(float64(value) / float64(limit) * cells))
	}
	filled = min(filled, cells)
	filled = max(filled, 0)
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}

// FormatCount abbreviates counts of a thousand or more ("12.3k").
func FormatCount(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprint(n)
}
