// Package scene assembles the showcase scene: camera, renderer,
// post-processing pipeline, orbit controls, camera-mounted lights,
// decorative geometry and the asynchronously loaded model.
package scene

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/assets"
	"github.com/Faultbox/retroscene/internal/config"
	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/controls"
	"github.com/Faultbox/retroscene/internal/engine/dispose"
	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/internal/engine/input"
	"github.com/Faultbox/retroscene/internal/engine/loader"
	"github.com/Faultbox/retroscene/internal/engine/perf"
	"github.com/Faultbox/retroscene/internal/engine/picking"
	"github.com/Faultbox/retroscene/internal/engine/postfx"
	"github.com/Faultbox/retroscene/internal/engine/renderer"
	"github.com/Faultbox/retroscene/internal/logger"
	"github.com/Faultbox/retroscene/pkg/math"
)

// RootName is the name of the scene graph root.
const RootName = "world"

// ErrNoDevice is returned by New without a GPU device.
var ErrNoDevice = errors.New("scene: no GPU device")

// State is the lifecycle state of a Scene.
type State uint8

const (
	StateConstructing State = iota
	StateLoading
	StateReady
	StateDegradedReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDegradedReady:
		return "degraded"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// LoadResult is delivered once the model load settles. A non-nil Err means
// the scene runs without the model.
type LoadResult struct {
	Err error
}

// Deps are the collaborators a Scene is built on. Device is required.
type Deps struct {
	Device gpu.Device

	// Listeners is the document-level event registry. Without it the
	// scene receives no pointer, wheel, touch or key input.
	Listeners *input.Registry

	// Loader runs the model load; nil builds one reading from the
	// configured decoder directory.
	Loader *loader.Loader

	// PixelRatio reports the current device pixel ratio on resize.
	PixelRatio func() float32

	// Rand drives decor placement, hover colors and the glitch schedule.
	// Nil seeds one from the decor seed, or from the clock when that is 0.
	Rand *rand.Rand

	// Perf collects frame statistics; nil disables them.
	Perf *perf.Monitor

	Log *zap.Logger
}

// Scene owns every object of one showcase instance. It is driven from a
// single thread: listeners, Frame and the public operations must not run
// concurrently.
type Scene struct {
	cfg config.SceneConfig
	dev gpu.Device
	log *zap.Logger
	rng *rand.Rand

	root     *graph.Node
	decor    *graph.Node
	model    *graph.Node
	lights   []*graph.Node
	camera   *camera.Perspective
	renderer *renderer.Renderer
	pipeline *postfx.Pipeline
	controls *controls.Controller
	tracker  *controls.Tracker

	raycaster picking.Raycaster
	highlight *picking.Highlighter
	perf      *perf.Monitor

	pending *loader.Future
	owned   *loader.Loader // built by New when Deps.Loader is nil
	state   State
	walker  *dispose.Walker
	remove  []func()

	onLoaded       []func(LoadResult)
	onModelClicked []func()

	renderFailing bool
}

// New builds the scene in the order camera, renderer, pipeline,
// controller, lights; then adds the decor, starts the model load, wires
// the listeners and registers the animation loop. An invalid configuration
// fails before any GPU resource is created.
func New(deps Deps, cfg config.SceneConfig) (*Scene, error) {
	if deps.Device == nil {
		return nil, ErrNoDevice
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := deps.Log
	if log == nil {
		log = logger.Named("scene")
	}
	rng := deps.Rand
	if rng == nil {
		seed := cfg.Decor.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	monitor := deps.Perf
	if monitor == nil {
		monitor = perf.NewMonitor(false)
	}

	s := &Scene{
		cfg:       cfg,
		dev:       deps.Device,
		log:       log,
		rng:       rng,
		root:      graph.NewGroup(RootName),
		highlight: picking.NewHighlighter(rng),
		perf:      monitor,
		state:     StateConstructing,
		walker:    dispose.New(deps.Device, log),
	}

	if err := s.build(deps); err != nil {
		s.release()
		s.state = StateDisposed
		return nil, err
	}

	ld := deps.Loader
	if ld == nil {
		m := assets.NewManager()
		if err := m.AddDir(cfg.Decoder.Dir); err != nil {
			log.Warn("no asset dir for model", zap.Error(err))
		}
		ld = loader.New(loader.NewDecoder(m, cfg.Decoder, log), log.Named("loader"))
		s.owned = ld
	}
	desc := loader.DescriptorFromConfig(cfg.Model)
	s.pending = ld.Load(context.Background(), desc)
	s.state = StateLoading

	if deps.Listeners != nil {
		s.listen(deps.Listeners)
	}
	s.renderer.SetAnimationLoop(s.Frame)

	log.Info("scene created",
		zap.String("model", desc.Name()),
		zap.Int("width", cfg.Renderer.Width),
		zap.Int("height", cfg.Renderer.Height),
		zap.Float32("pixel_ratio", s.renderer.PixelRatio()),
		zap.Int("lights", len(s.lights)),
		zap.Int("decor", len(s.decor.Children)))
	return s, nil
}

func (s *Scene) build(deps Deps) error {
	cfg := &s.cfg
	w, h := cfg.Renderer.Width, cfg.Renderer.Height

	s.camera = camera.NewPerspective(cfg.Camera.FOV, float32(w)/float32(h), cfg.Camera.Near, cfg.Camera.Far)
	s.camera.SetPosition(cfg.Camera.Position)
	s.camera.LookAt(cfg.Camera.LookAt)
	s.root.Add(s.camera.Node)

	var err error
	s.renderer, err = renderer.New(s.dev, renderer.Options{
		Width:      w,
		Height:     h,
		PixelRatio: cfg.Renderer.PixelRatio,
		ClearColor: graph.ColorFromHex(cfg.Renderer.ClearColor),
		ClearAlpha: 1,
	}, s.log.Named("renderer"))
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	s.pipeline, err = postfx.NewPipeline(s.renderer, s.root, s.camera, cfg.PostFX, s.rng, s.log.Named("postfx"))
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	s.pipeline.PixelRatio = deps.PixelRatio

	s.controls, err = controls.New(s.camera, controlOptions(cfg.Controls, cfg.Camera.LookAt))
	if err != nil {
		return fmt.Errorf("create controls: %w", err)
	}
	s.controls.SetViewport(w, h)
	s.controls.Update()
	s.controls.SaveState()

	bindings := controls.DefaultBindings()
	if cfg.Controls.KeyPanSpeed > 0 {
		bindings.KeyPanSpeed = cfg.Controls.KeyPanSpeed
	}
	s.tracker = controls.NewTracker(bindings)

	s.addLights()
	s.addDecor()
	return nil
}

func controlOptions(c config.ControlsConfig, target math.Vec3) controls.Options {
	o := controls.DefaultOptions()
	o.EnableDamping = c.EnableDamping
	if c.DampingFactor > 0 {
		o.DampingFactor = c.DampingFactor
	}
	o.EnableZoom = c.EnableZoom
	o.ZoomSpeed = c.ZoomSpeed
	o.EnableRotate = c.EnableRotate
	o.RotateSpeed = c.RotateSpeed
	o.EnablePan = c.EnablePan
	o.PanSpeed = c.PanSpeed
	o.ScreenSpacePanning = c.ScreenSpacePanning
	o.AutoRotate = c.AutoRotate
	o.AutoRotateSpeed = c.AutoRotateSpeed
	o.MinDistance = c.MinDistance
	o.MaxDistance = c.MaxDistance
	o.MinPolarAngle = c.MinPolarAngle
	o.MaxPolarAngle = c.MaxPolarAngle
	o.MinAzimuthAngle = c.MinAzimuthAngle
	o.MaxAzimuthAngle = c.MaxAzimuthAngle
	o.MinXPan = c.MinXPan
	o.MaxXPan = c.MaxXPan
	o.MinYPan = c.MinYPan
	o.MaxYPan = c.MaxYPan
	o.ZoomThreshold = c.ZoomThreshold
	o.Target = target
	return o
}

// addLights mounts the configured lights on the camera so the model is
// always lit from the viewer's side.
func (s *Scene) addLights() {
	for i, lc := range s.cfg.Lights {
		var typ graph.LightType
		switch lc.Type {
		case config.LightDirectional:
			typ = graph.LightDirectional
		case config.LightPoint:
			typ = graph.LightPoint
		default:
			typ = graph.LightAmbient
		}
		n := graph.NewLight(fmt.Sprintf("%s-%d", lc.Type, i), &graph.Light{
			Type:      typ,
			Color:     graph.ColorFromHex(lc.Color),
			Intensity: lc.Intensity,
		})
		if lc.Position != nil {
			n.Position = *lc.Position
		}
		s.camera.Node.Add(n)
		s.lights = append(s.lights, n)
	}
}

// Frame advances the scene by one animation frame: it attaches a settled
// model load, renders through the pipeline, steps the controls and
// records frame statistics. Render errors are logged and never stop the
// loop.
func (s *Scene) Frame(now time.Duration) {
	if s.state == StateDisposed {
		return
	}
	s.pollLoad()

	if err := s.pipeline.Render(); err != nil {
		if !s.renderFailing {
			s.log.Warn("frame render failed", zap.Error(err))
		}
		s.renderFailing = true
	} else if s.renderFailing {
		s.log.Info("frame render recovered")
		s.renderFailing = false
	}

	s.controls.Update()
	s.perf.EndFrame(now, s.renderer.Info())
}

// Tick runs the registered animation callback once. Hosts call it from
// their display loop; it reports whether a frame ran.
func (s *Scene) Tick(now time.Duration) bool {
	return s.renderer.Tick(now)
}

func (s *Scene) pollLoad() {
	if s.pending == nil {
		return
	}
	res, ok := s.pending.Poll()
	if !ok {
		return
	}
	s.pending = nil

	if res.Err != nil {
		s.state = StateDegradedReady
		s.log.Warn("model unavailable, continuing without it", zap.Error(res.Err))
		s.emitLoaded(LoadResult{Err: res.Err})
		return
	}

	res.Node.Traverse(func(n *graph.Node) {
		if n.Mesh != nil && n.Mesh.Material != nil {
			n.Mesh.Material.Side = graph.SideDouble
		}
	})
	s.root.Add(res.Node)
	s.root.UpdateWorld()
	s.model = res.Node
	s.state = StateReady
	s.log.Info("model attached", zap.String("name", res.Node.Name))
	s.emitLoaded(LoadResult{})
}

// OnLoaded registers fn to run once the model load settles.
func (s *Scene) OnLoaded(fn func(LoadResult)) {
	s.onLoaded = append(s.onLoaded, fn)
}

// OnModelClicked registers fn to run when a pointer press hits a mesh.
func (s *Scene) OnModelClicked(fn func()) {
	s.onModelClicked = append(s.onModelClicked, fn)
}

func (s *Scene) emitLoaded(r LoadResult) {
	for _, fn := range s.onLoaded {
		fn(r)
	}
}

func (s *Scene) emitModelClicked() {
	for _, fn := range s.onModelClicked {
		fn()
	}
}

// ResetView restores the saved camera pose, moves the model back to its
// configured position and turns auto-rotation back on.
func (s *Scene) ResetView() {
	if s.state == StateDisposed {
		return
	}
	s.controls.Reset()
	if n := s.root.FindByName(loader.RootName); n != nil {
		n.Position = s.cfg.Model.Position
	}
	s.controls.SetAutoRotate(true)
}

// ResizeView resizes the camera, renderer and pipeline to a new viewport
// and runs one controller update. Sizes below 1 are clamped to 1.
func (s *Scene) ResizeView(width, height int) error {
	if s.state == StateDisposed {
		return nil
	}
	width, height = max(width, 1), max(height, 1)
	s.cfg.Renderer.Width, s.cfg.Renderer.Height = width, height
	if err := s.pipeline.Resize(width, height); err != nil {
		return err
	}
	s.cfg.Renderer.PixelRatio = s.renderer.PixelRatio()
	s.controls.SetViewport(width, height)
	s.controls.Update()
	return nil
}

// HitTest casts a ray from the camera through the window point (x, y) and
// returns the nearest mesh under it.
func (s *Scene) HitTest(x, y float32) picking.Hit {
	if s.state == StateDisposed {
		return picking.Hit{}
	}
	w, h := s.renderer.Size()
	ndc, ok := picking.Normalize(x, y, picking.Rect{Width: float32(w), Height: float32(h)})
	if !ok {
		return picking.Hit{}
	}
	s.root.UpdateWorld()
	return s.raycaster.HitTest(ndc, s.camera, s.root)
}

// DisposeAll stops the animation loop, releases every GPU resource the
// scene owns and removes its listeners. A model load still in flight is
// dropped; a loader the scene built itself is closed, waiting for it.
// Calling DisposeAll again does nothing.
func (s *Scene) DisposeAll() dispose.Stats {
	if s.state == StateDisposed {
		return dispose.Stats{}
	}
	s.state = StateDisposed
	s.pending = nil

	s.renderer.SetAnimationLoop(nil)
	stats := s.release()
	for _, remove := range s.remove {
		remove()
	}
	s.remove = nil
	s.tracker.Cancel()
	if s.owned != nil {
		s.owned.Close()
		s.owned = nil
	}

	s.log.Info("scene disposed",
		zap.Int("nodes", stats.Nodes),
		zap.Int("released", stats.Released),
		zap.Int("disposed", stats.Disposed))
	return stats
}

func (s *Scene) release() dispose.Stats {
	roots := []any{s.root}
	if s.pipeline != nil {
		roots = append(roots, s.pipeline)
	}
	if s.controls != nil {
		roots = append(roots, s.controls)
	}
	if s.renderer != nil {
		roots = append(roots, s.renderer)
	}
	return s.walker.Dispose(roots...)
}

// State returns the lifecycle state.
func (s *Scene) State() State {
	return s.state
}

// Root returns the scene graph root.
func (s *Scene) Root() *graph.Node {
	return s.root
}

// Model returns the attached model, or nil before a successful load.
func (s *Scene) Model() *graph.Node {
	return s.model
}

// Decor returns the group holding the decorative meshes.
func (s *Scene) Decor() *graph.Node {
	return s.decor
}

// Camera returns the scene camera.
func (s *Scene) Camera() *camera.Perspective {
	return s.camera
}

// Controls returns the orbit controller.
func (s *Scene) Controls() *controls.Controller {
	return s.controls
}

// Renderer returns the renderer.
func (s *Scene) Renderer() *renderer.Renderer {
	return s.renderer
}

// Pipeline returns the post-processing pipeline.
func (s *Scene) Pipeline() *postfx.Pipeline {
	return s.pipeline
}

// Perf returns the frame statistics monitor.
func (s *Scene) Perf() *perf.Monitor {
	return s.perf
}

// Hovering reports whether the pointer is over a named mesh.
func (s *Scene) Hovering() bool {
	return s.highlight.Hovering()
}
