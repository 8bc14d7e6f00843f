package perf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
)

func TestFPSOverHalfSecondWindows(t *testing.T) {
	m := NewMonitor(true)
	info := gpu.Info{Calls: 53, Triangles: 1234, Geometries: 5, Textures: 2}

	// 60 Hz: the window closes on the frame at 500 ms.
	for i := 0; i < 30; i++ {
		m.EndFrame(time.Duration(i)*time.Second/60, info)
	}
	assert.Equal(t, 0, m.Stats().FPS, "no full window yet")

	m.EndFrame(30*time.Second/60, info)
	assert.Equal(t, 62, m.Stats().FPS)
	assert.Equal(t, 53, m.Stats().Calls)
	assert.Equal(t, 1234, m.Stats().Triangles)
}

func TestFPSClockStartingLate(t *testing.T) {
	m := NewMonitor(true)
	start := 3 * time.Second
	for i := 0; i <= 30; i++ {
		m.EndFrame(start+time.Duration(i)*time.Second/60, gpu.Info{})
	}
	assert.Equal(t, 62, m.Stats().FPS)
}

func TestText(t *testing.T) {
	m := NewMonitor(true)
	m.EndFrame(time.Second, gpu.Info{Calls: 7, Triangles: 42, Geometries: 4, Textures: 1})

	wide := m.Text(1280)
	assert.NotContains(t, wide, "\n")
	assert.Contains(t, wide, "Triangles:      42")

	narrow := m.Text(Breakpoint)
	lines := strings.Split(narrow, "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Geos:    4"))
}

func TestDisabledMonitor(t *testing.T) {
	m := NewMonitor(false)
	m.EndFrame(time.Second, gpu.Info{Calls: 9})
	assert.Equal(t, Stats{}, m.Stats())
	assert.Empty(t, m.Text(1920))
}

func TestBarAndFormat(t *testing.T) {
	assert.Equal(t, "█████░░░░░", Bar(50, 100))
	assert.Equal(t, "██████████", Bar(500, 100))
	assert.Equal(t, "░░░░░░░░░░", Bar(5, 0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "12.3k", FormatCount(12345))
}
