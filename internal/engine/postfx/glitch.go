package postfx

import (
	gomath "math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/shaders"
	"github.com/Faultbox/retroscene/internal/engine/texture"
	"github.com/Faultbox/retroscene/pkg/math"
)

const (
	glitchNoiseSize = 64
	glitchColumn    = 0.05
)

// GlitchPass produces digital glitches. Between bursts it passes the image
// through; a full burst fires every 120 to 240 frames, preceded by a run of
// weaker frames. Wild mode glitches every frame.
type GlitchPass struct {
	shaderPass
	rng  *rand.Rand
	wild bool

	noise   gpu.Handle
	frame   int
	trigger int

	uniforms gpu.Uniforms
}

// NewGlitchPass creates a glitch pass with a random displacement map.
func NewGlitchPass(dev gpu.Device, log *zap.Logger, rng *rand.Rand) (*GlitchPass, error) {
	sp, err := newShaderPass(dev, log, "glitch", shaders.GlitchFragmentShader, "tDiffuse", "tDisp")
	if err != nil {
		return nil, err
	}
	img := texture.NewNoise(glitchNoiseSize, rng)
	noise, err := dev.CreateTexture(gpu.TextureData{
		Width:  glitchNoiseSize,
		Height: glitchNoiseSize,
		Pixels: img.Pix,
		Repeat: true,
	})
	if err != nil {
		sp.Dispose()
		return nil, err
	}
	p := &GlitchPass{
		shaderPass: sp,
		rng:        rng,
		noise:      noise,
		uniforms: gpu.Uniforms{
			"bypass":      false,
			"amount":      float32(0.08),
			"angle":       float32(0.02),
			"seed":        float32(0.02),
			"seedX":       float32(0.02),
			"seedY":       float32(0.02),
			"distortionX": float32(0.5),
			"distortionY": float32(0.6),
			"colS":        float32(glitchColumn),
		},
	}
	p.newTrigger()
	return p, nil
}

// SetWild toggles glitching on every frame.
func (p *GlitchPass) SetWild(wild bool) {
	p.wild = wild
}

// Wild reports whether wild mode is on.
func (p *GlitchPass) Wild() bool {
	return p.wild
}

func (p *GlitchPass) newTrigger() {
	p.trigger = 120 + p.rng.Intn(121)
}

func (p *GlitchPass) between(lo, hi float64) float32 {
	return float32(lo + p.rng.Float64()*(hi-lo))
}

// Step advances the glitch state by one frame and returns the uniforms
// for it.
func (p *GlitchPass) Step() gpu.Uniforms {
	u := p.uniforms
	u["seed"] = float32(p.rng.Float64())
	u["bypass"] = false
	u["resolution"] = math.Vec2{X: float32(p.width), Y: float32(p.height)}

	switch {
	case p.frame%p.trigger == 0 || p.wild:
		u["amount"] = float32(p.rng.Float64() / 30)
		u["angle"] = p.between(-gomath.Pi, gomath.Pi)
		u["seedX"] = p.between(-1, 1)
		u["seedY"] = p.between(-1, 1)
		u["distortionX"] = p.between(0, 1)
		u["distortionY"] = p.between(0, 1)
		p.frame = 0
		p.newTrigger()
	case p.frame%p.trigger < p.trigger/5:
		u["amount"] = float32(p.rng.Float64() / 90)
		u["angle"] = p.between(-gomath.Pi, gomath.Pi)
		u["distortionX"] = p.between(0, 1)
		u["distortionY"] = p.between(0, 1)
		u["seedX"] = p.between(-0.3, 0.3)
		u["seedY"] = p.between(-0.3, 0.3)
	default:
		u["bypass"] = true
	}
	p.frame++
	return u
}

// Render implements Pass.
func (p *GlitchPass) Render(read, write Target) error {
	return p.draw(write, []gpu.Handle{read.Handle, p.noise}, p.Step())
}

// Dispose implements Pass.
func (p *GlitchPass) Dispose() {
	release(p.dev, p.log, &p.noise)
	p.shaderPass.Dispose()
}
