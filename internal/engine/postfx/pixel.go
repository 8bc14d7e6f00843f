package postfx

import (
	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/shaders"
	"github.com/Faultbox/retroscene/pkg/math"
)

// DefaultPixelSize is the edge of one output pixel block in device pixels.
const DefaultPixelSize = 8

// PixelPass snaps the image to a coarse pixel grid.
type PixelPass struct {
	shaderPass
	pixelSize float32
}

// NewPixelPass creates a pixelation pass. A non-positive size selects
// DefaultPixelSize.
func NewPixelPass(dev gpu.Device, log *zap.Logger, pixelSize float32) (*PixelPass, error) {
	sp, err := newShaderPass(dev, log, "pixel", shaders.PixelFragmentShader, "tDiffuse")
	if err != nil {
		return nil, err
	}
	p := &PixelPass{shaderPass: sp}
	p.SetPixelSize(pixelSize)
	return p, nil
}

// SetPixelSize sets the block size.
func (p *PixelPass) SetPixelSize(size float32) {
	if size <= 0 {
		size = DefaultPixelSize
	}
	p.pixelSize = size
}

// PixelSize returns the block size.
func (p *PixelPass) PixelSize() float32 {
	return p.pixelSize
}

// Uniforms returns the values the next Render will upload.
func (p *PixelPass) Uniforms() gpu.Uniforms {
	return gpu.Uniforms{
		"resolution": math.Vec2{X: float32(p.width), Y: float32(p.height)},
		"pixelSize":  p.pixelSize,
	}
}

// Render implements Pass.
func (p *PixelPass) Render(read, write Target) error {
	return p.draw(write, []gpu.Handle{read.Handle}, p.Uniforms())
}
