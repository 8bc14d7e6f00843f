package postfx

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
)

// ErrDisposed is returned when rendering through a disposed composer.
var ErrDisposed = errors.New("postfx: composer disposed")

// Composer runs passes in order through two ping-pong render targets. The
// last enabled pass draws to the screen.
type Composer struct {
	dev    gpu.Device
	log    *zap.Logger
	passes []Pass

	read, write   gpu.Handle
	width, height int
	disposed      bool
}

// NewComposer creates a composer whose targets are width x height device
// pixels.
func NewComposer(dev gpu.Device, width, height int, log *zap.Logger) (*Composer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Composer{dev: dev, log: log, width: max(width, 1), height: max(height, 1)}

	var err error
	if c.read, err = dev.CreateRenderTarget(c.width, c.height); err != nil {
		return nil, fmt.Errorf("composer read target: %w", err)
	}
	if c.write, err = dev.CreateRenderTarget(c.width, c.height); err != nil {
		release(dev, log, &c.read)
		return nil, fmt.Errorf("composer write target: %w", err)
	}
	return c, nil
}

// AddPass appends a pass and sizes it to the composer.
func (c *Composer) AddPass(p Pass) {
	p.SetSize(c.width, c.height)
	c.passes = append(c.passes, p)
}

// Passes returns the passes in render order.
func (c *Composer) Passes() []Pass {
	return c.passes
}

// Targets returns the two ping-pong render targets.
func (c *Composer) Targets() (read, write gpu.Handle) {
	return c.read, c.write
}

// Size returns the target size in device pixels.
func (c *Composer) Size() (width, height int) {
	return c.width, c.height
}

// SetSize resizes both targets and every pass. Sizes below 1 are clamped.
func (c *Composer) SetSize(width, height int) error {
	if c.disposed {
		return nil
	}
	c.width, c.height = max(width, 1), max(height, 1)
	for _, h := range []gpu.Handle{c.read, c.write} {
		if err := c.dev.ResizeRenderTarget(h, c.width, c.height); err != nil {
			return fmt.Errorf("resize %s: %w", h, err)
		}
	}
	for _, p := range c.passes {
		p.SetSize(c.width, c.height)
	}
	return nil
}

// Render runs every enabled pass.
func (c *Composer) Render() error {
	if c.disposed {
		return ErrDisposed
	}
	last := -1
	for i, p := range c.passes {
		if p.Enabled() {
			last = i
		}
	}

	read := Target{Handle: c.read, Width: c.width, Height: c.height}
	write := Target{Handle: c.write, Width: c.width, Height: c.height}
	for i, p := range c.passes {
		if !p.Enabled() {
			continue
		}
		out := write
		if i == last {
			out.Handle = gpu.Handle{}
		}
		if err := p.Render(read, out); err != nil {
			return err
		}
		read, write = write, read
	}
	return nil
}

// Dispose disposes every pass and releases the targets. Calling it again
// has no effect.
func (c *Composer) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	for _, p := range c.passes {
		p.Dispose()
	}
	release(c.dev, c.log, &c.read)
	release(c.dev, c.log, &c.write)
}
