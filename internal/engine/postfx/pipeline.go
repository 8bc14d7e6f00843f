package postfx

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/config"
	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/internal/engine/renderer"
)

// Pipeline is the renderer plus the fixed pass chain: scene render,
// pixelation, glitch. Resize is its only resize path.
type Pipeline struct {
	renderer *renderer.Renderer
	camera   *camera.Perspective
	composer *Composer
	log      *zap.Logger

	render *RenderPass
	pixel  *PixelPass
	glitch *GlitchPass

	// PixelRatio, when set, is read on every Resize.
	PixelRatio func() float32
}

// NewPipeline builds the pass chain for root as seen by cam, sized from the
// renderer's current size and pixel ratio.
func NewPipeline(r *renderer.Renderer, root *graph.Node, cam *camera.Perspective, cfg config.PostFXConfig, rng *rand.Rand, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, h := r.Size()
	dw, dh := renderer.ScaledSize(w, h, r.PixelRatio())
	composer, err := NewComposer(r.Device(), dw, dh, log)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{renderer: r, camera: cam, composer: composer, log: log}

	p.render = NewRenderPass(r, root, cam)
	composer.AddPass(p.render)

	if p.pixel, err = NewPixelPass(r.Device(), log, cfg.PixelSize); err != nil {
		composer.Dispose()
		return nil, err
	}
	p.pixel.SetEnabled(cfg.Pixelate)
	composer.AddPass(p.pixel)

	if p.glitch, err = NewGlitchPass(r.Device(), log, rng); err != nil {
		composer.Dispose()
		return nil, err
	}
	p.glitch.SetEnabled(cfg.Glitch)
	p.glitch.SetWild(cfg.GlitchWild)
	composer.AddPass(p.glitch)

	return p, nil
}

// Resize propagates a new viewport size to the camera, the renderer, the
// composer and every pass. Sizes below 1 are clamped to 1.
func (p *Pipeline) Resize(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	ratio := p.renderer.PixelRatio()
	if p.PixelRatio != nil {
		ratio = p.PixelRatio()
	}

	p.camera.SetAspect(float32(width) / float32(height))
	p.renderer.SetPixelRatio(ratio)
	p.renderer.SetSize(width, height)

	dw, dh := renderer.ScaledSize(width, height, p.renderer.PixelRatio())
	if err := p.composer.SetSize(dw, dh); err != nil {
		return fmt.Errorf("resize pipeline to %dx%d: %w", width, height, err)
	}
	p.log.Debug("pipeline resized",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("buffer_width", dw),
		zap.Int("buffer_height", dh))
	return nil
}

// Render draws one frame through the pass chain.
func (p *Pipeline) Render() error {
	return p.composer.Render()
}

// Composer returns the composer.
func (p *Pipeline) Composer() *Composer {
	return p.composer
}

// Pixel returns the pixelation pass.
func (p *Pipeline) Pixel() *PixelPass {
	return p.pixel
}

// Glitch returns the glitch pass.
func (p *Pipeline) Glitch() *GlitchPass {
	return p.glitch
}

// Dispose releases the composer and its passes. The renderer is disposed
// separately.
func (p *Pipeline) Dispose() {
	p.composer.Dispose()
}
