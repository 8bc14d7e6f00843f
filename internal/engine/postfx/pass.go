// Package postfx implements the post-processing composer and its passes.
package postfx

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/shaders"
)

// Target is a render target and its size. A zero Handle is the screen.
type Target struct {
	Handle        gpu.Handle
	Width, Height int
}

// Pass is one stage of the composer. Each pass reads the previous stage's
// output from read and writes its own to write.
type Pass interface {
	Name() string
	Render(read, write Target) error
	// SetSize sets the pass resolution in device pixels.
	SetSize(width, height int)
	Resolution() (width, height int)
	Enabled() bool
	SetEnabled(enabled bool)
	Dispose()
}

// base holds the state shared by every pass.
type base struct {
	name          string
	width, height int
	enabled       bool
}

func (b *base) Name() string {
	return b.name
}

func (b *base) SetSize(width, height int) {
	b.width = max(width, 1)
	b.height = max(height, 1)
}

func (b *base) Resolution() (int, int) {
	return b.width, b.height
}

func (b *base) Enabled() bool {
	return b.enabled
}

func (b *base) SetEnabled(enabled bool) {
	b.enabled = enabled
}

// shaderPass draws a fullscreen quad with one fragment program.
type shaderPass struct {
	base
	dev     gpu.Device
	log     *zap.Logger
	program gpu.Handle
}

func newShaderPass(dev gpu.Device, log *zap.Logger, name, fragment string, samplers ...string) (shaderPass, error) {
	program, err := dev.CreateProgram(gpu.ProgramSource{
		Name:     name,
		Vertex:   shaders.QuadVertexShader,
		Fragment: fragment,
		Samplers: samplers,
	})
	if err != nil {
		return shaderPass{}, fmt.Errorf("%s pass: %w", name, err)
	}
	return shaderPass{
		base:    base{name: name, width: 1, height: 1, enabled: true},
		dev:     dev,
		log:     log,
		program: program,
	}, nil
}

func (p *shaderPass) draw(write Target, textures []gpu.Handle, uniforms gpu.Uniforms) error {
	if err := p.dev.BeginPass(gpu.Pass{
		Target: write.Handle,
		Width:  write.Width,
		Height: write.Height,
		Clear:  true,
	}); err != nil {
		return fmt.Errorf("%s pass: %w", p.name, err)
	}
	if err := p.dev.DrawQuad(p.program, textures, uniforms); err != nil {
		return fmt.Errorf("%s pass: %w", p.name, err)
	}
	return nil
}

// release frees h unless it is zero or already gone.
func release(dev gpu.Device, log *zap.Logger, h *gpu.Handle) {
	if h.IsZero() {
		return
	}
	if err := dev.Release(*h); err != nil && !errors.Is(err, gpu.ErrUnknownHandle) {
		log.Warn("failed to release post-processing resource", zap.Stringer("handle", *h), zap.Error(err))
	}
	*h = gpu.Handle{}
}

func (p *shaderPass) Dispose() {
	release(p.dev, p.log, &p.program)
}
