package postfx

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/retroscene/internal/config"
	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/geometry"
	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/internal/engine/renderer"
	"github.com/Faultbox/retroscene/pkg/math"
)

type fixture struct {
	dev      *gpu.Recorder
	renderer *renderer.Renderer
	camera   *camera.Perspective
	pipeline *Pipeline
}

func newFixture(t *testing.T, cfg config.PostFXConfig, ratio float32) *fixture {
	t.Helper()
	dev := gpu.NewRecorder()
	r, err := renderer.New(dev, renderer.Options{Width: 640, Height: 480, PixelRatio: ratio}, nil)
	require.NoError(t, err)

	cam := camera.NewPerspective(50, 640.0/480, 1, 1000)
	cam.SetPosition(math.Vec3{Z: 10})
	cam.LookAt(math.Vec3{})
	root := graph.NewGroup("root")
	root.Add(graph.NewMesh("box", geometry.Box(1, 1, 1), graph.NewMaterial("box", graph.MaterialPhong, graph.White)))

	p, err := NewPipeline(r, root, cam, cfg, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	return &fixture{dev: dev, renderer: r, camera: cam, pipeline: p}
}

func allPasses() config.PostFXConfig {
	return config.PostFXConfig{Pixelate: true, PixelSize: 8, Glitch: true}
}

func TestConstructionSizesFromRenderer(t *testing.T) {
	f := newFixture(t, allPasses(), 2)
	w, h := f.pipeline.Composer().Size()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 960, h)
	for _, p := range f.pipeline.Composer().Passes() {
		pw, ph := p.Resolution()
		assert.Equal(t, 1280, pw, p.Name())
		assert.Equal(t, 960, ph, p.Name())
	}
}

func TestResizeRoundTrip(t *testing.T) {
	sizes := []int{1, 100, 1920}
	for _, ratio := range []float32{1, 2} {
		f := newFixture(t, allPasses(), ratio)
		for _, w := range sizes {
			for _, h := range sizes {
				t.Run(fmt.Sprintf("%gx/%dx%d", ratio, w, h), func(t *testing.T) {
					require.NoError(t, f.pipeline.Resize(w, h))

					wantW, wantH := renderer.ScaledSize(w, h, ratio)
					assert.InDelta(t, float32(w)/float32(h), f.camera.Aspect, 1e-6)

					rw, rh := f.renderer.Size()
					assert.Equal(t, w, rw)
					assert.Equal(t, h, rh)
					bw, bh := f.renderer.DrawingBufferSize()
					assert.Equal(t, wantW, bw)
					assert.Equal(t, wantH, bh)

					for _, p := range f.pipeline.Composer().Passes() {
						pw, ph := p.Resolution()
						assert.Equal(t, wantW, pw, p.Name())
						assert.Equal(t, wantH, ph, p.Name())
					}
					read, write := f.pipeline.Composer().Targets()
					for _, target := range []gpu.Handle{read, write} {
						tw, th, ok := f.dev.TargetSize(target)
						require.True(t, ok)
						assert.Equal(t, wantW, tw)
						assert.Equal(t, wantH, th)
					}
					res := f.pipeline.Pixel().Uniforms()["resolution"].(math.Vec2)
					assert.Equal(t, math.Vec2{X: float32(wantW), Y: float32(wantH)}, res)
				})
			}
		}
	}
}

func TestResizeClampsAndReadsPixelRatio(t *testing.T) {
	f := newFixture(t, allPasses(), 1)
	f.pipeline.PixelRatio = func() float32 { return 3 }

	require.NoError(t, f.pipeline.Resize(0, -10))
	w, h := f.renderer.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, float32(3), f.renderer.PixelRatio())
	cw, ch := f.pipeline.Composer().Size()
	assert.Equal(t, 3, cw)
	assert.Equal(t, 3, ch)
	assert.Equal(t, float32(1), f.camera.Aspect)
}

func TestComposerPingPong(t *testing.T) {
	f := newFixture(t, allPasses(), 1)
	require.NoError(t, f.pipeline.Render())

	read, write := f.pipeline.Composer().Targets()
	passes := f.dev.Passes()
	require.Len(t, passes, 3)
	assert.Equal(t, write, passes[0].Target, "scene renders into the write target")
	assert.Equal(t, read, passes[1].Target, "pixel pass writes the other target")
	assert.True(t, passes[2].Target.IsZero(), "last pass draws to the screen")

	draws := f.dev.Draws()
	require.Len(t, draws, 3)
	assert.Equal(t, []gpu.Handle{write}, draws[1].Textures)
	assert.Equal(t, read, draws[2].Textures[0])
	assert.Equal(t, "glitch", f.dev.ProgramName(draws[2].Program))
}

func TestDisabledPassesAreSkipped(t *testing.T) {
	f := newFixture(t, config.PostFXConfig{Pixelate: true}, 1)
	require.NoError(t, f.pipeline.Render())

	passes := f.dev.Passes()
	require.Len(t, passes, 2)
	assert.True(t, passes[1].Target.IsZero(), "pixel pass is last when glitch is off")

	f.dev.ResetRecords()
	f.pipeline.Pixel().SetEnabled(false)
	require.NoError(t, f.pipeline.Render())
	passes = f.dev.Passes()
	require.Len(t, passes, 1)
	assert.True(t, passes[0].Target.IsZero())
}

func TestGlitchSchedule(t *testing.T) {
	f := newFixture(t, allPasses(), 1)
	g := f.pipeline.Glitch()

	first := g.Step()
	assert.Equal(t, false, first["bypass"], "a burst fires on the first frame")

	bypassed := 0
	for i := 0; i < 300; i++ {
		if g.Step()["bypass"] == true {
			bypassed++
		}
	}
	assert.Greater(t, bypassed, 0)
	assert.Less(t, bypassed, 300, "a second burst fires within 240 frames")

	g.SetWild(true)
	for i := 0; i < 50; i++ {
		u := g.Step()
		assert.Equal(t, false, u["bypass"])
		amount := u["amount"].(float32)
		assert.GreaterOrEqual(t, amount, float32(0))
		assert.Less(t, amount, float32(1.0/30))
	}
}

func TestDisposeReleasesPipelineOnce(t *testing.T) {
	f := newFixture(t, allPasses(), 1)
	before := f.dev.LiveCount(gpu.KindRenderTarget)
	assert.Equal(t, 2, before)

	f.pipeline.Dispose()
	f.pipeline.Dispose()

	assert.Zero(t, f.dev.LiveCount(gpu.KindRenderTarget))
	assert.Equal(t, 2, f.dev.LiveCount(gpu.KindProgram), "only the renderer programs remain")
	assert.Equal(t, 1, f.dev.LiveCount(gpu.KindTexture), "only the renderer fallback texture remains")
	for h, n := range f.dev.Released() {
		assert.Equal(t, 1, n, "handle %s", h)
	}
	assert.ErrorIs(t, f.pipeline.Render(), ErrDisposed)
	assert.NoError(t, f.pipeline.Resize(10, 10))
}
