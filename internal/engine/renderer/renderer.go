// Package renderer draws a scene graph through a gpu.Device.
package renderer

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/internal/engine/shaders"
	"github.com/Faultbox/retroscene/pkg/math"
)

// MaxLights is the number of non-ambient lights the shaders accept.
const MaxLights = 4

// std140 sizes of the Frame and Material blocks.
const (
	frameBlockSize    = 304
	materialBlockSize = 48
)

// Material map bits read by the fragment shaders.
const (
	mapMaskColor    = 1
	mapMaskEmissive = 4
)

// ErrInvalidSize is returned for a non-positive drawing surface.
var ErrInvalidSize = errors.New("renderer: width and height must be positive")

// Options holds the drawing surface parameters.
type Options struct {
	Width, Height int
	PixelRatio    float32
	ClearColor    math.Vec3
	ClearAlpha    float32
}

// Renderer uploads scene resources lazily and draws them. It owns the
// built-in mesh programs, a 1x1 white fallback texture and the per-frame
// uniform block.
type Renderer struct {
	dev gpu.Device
	log *zap.Logger

	phong gpu.Handle
	basic gpu.Handle
	white gpu.Handle
	frame gpu.Handle

	width, height int
	pixelRatio    float32
	clear         [4]float32

	loop     FrameFunc
	disposed bool
}

// New creates a renderer and its built-in resources.
func New(dev gpu.Device, opts Options, log *zap.Logger) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		dev:    dev,
		log:    log,
		width:  opts.Width,
		height: opts.Height,
		clear:  [4]float32{opts.ClearColor.X, opts.ClearColor.Y, opts.ClearColor.Z, opts.ClearAlpha},
	}
	r.SetPixelRatio(opts.PixelRatio)

	if err := r.createBuiltins(); err != nil {
		r.Dispose()
		return nil, err
	}
	log.Debug("renderer created",
		zap.Int("width", r.width),
		zap.Int("height", r.height),
		zap.Float32("pixel_ratio", r.pixelRatio))
	return r, nil
}

func (r *Renderer) createBuiltins() error {
	var err error
	blocks := []string{shaders.FrameBlock, shaders.MaterialBlock}
	samplers := []string{"colorMap", "emissiveMap"}

	r.phong, err = r.dev.CreateProgram(gpu.ProgramSource{
		Name:     "phong",
		Vertex:   shaders.MeshVertexShader,
		Fragment: shaders.PhongFragmentShader,
		Blocks:   blocks,
		Samplers: samplers,
	})
	if err != nil {
		return fmt.Errorf("phong program: %w", err)
	}
	r.basic, err = r.dev.CreateProgram(gpu.ProgramSource{
		Name:     "basic",
		Vertex:   shaders.MeshVertexShader,
		Fragment: shaders.BasicFragmentShader,
		Blocks:   blocks,
		Samplers: samplers,
	})
	if err != nil {
		return fmt.Errorf("basic program: %w", err)
	}
	r.white, err = r.dev.CreateTexture(gpu.TextureData{
		Width:  1,
		Height: 1,
		Pixels: []byte{255, 255, 255, 255},
		Filter: gpu.FilterNearest,
	})
	if err != nil {
		return fmt.Errorf("fallback texture: %w", err)
	}
	r.frame, err = r.dev.CreateUniformBlock(frameBlockSize)
	if err != nil {
		return fmt.Errorf("frame block: %w", err)
	}
	return nil
}

// Device returns the device the renderer draws with.
func (r *Renderer) Device() gpu.Device {
	return r.dev
}

// SetSize sets the surface size in CSS-style (unscaled) pixels. Values
// below 1 are clamped to 1.
func (r *Renderer) SetSize(width, height int) {
	r.width = max(width, 1)
	r.height = max(height, 1)
}

// Size returns the surface size in unscaled pixels.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// SetPixelRatio sets the device pixel ratio. Non-positive ratios mean 1.
func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 || gomath.IsNaN(float64(ratio)) {
		ratio = 1
	}
	r.pixelRatio = ratio
}

// PixelRatio returns the device pixel ratio.
func (r *Renderer) PixelRatio() float32 {
	return r.pixelRatio
}

// DrawingBufferSize returns the surface size in device pixels.
func (r *Renderer) DrawingBufferSize() (width, height int) {
	return ScaledSize(r.width, r.height, r.pixelRatio)
}

// ScaledSize multiplies a size by a pixel ratio, rounding down and keeping
// both dimensions at least 1.
func ScaledSize(width, height int, ratio float32) (int, int) {
	w := int(gomath.Floor(float64(float32(width) * ratio)))
	h := int(gomath.Floor(float64(float32(height) * ratio)))
	return max(w, 1), max(h, 1)
}

// Info returns the device draw statistics.
func (r *Renderer) Info() gpu.Info {
	return r.dev.Info()
}

// Render draws every visible mesh under root as seen by cam into target
// (zero for the default framebuffer). Upload and draw failures are
// collected and returned; the remaining meshes are still drawn.
func (r *Renderer) Render(root *graph.Node, cam *camera.Perspective, target gpu.Handle) error {
	if r.disposed {
		return nil
	}
	root.UpdateWorld()
	if cam.Node.Parent == nil && cam.Node != root {
		cam.Node.UpdateWorld()
	}

	w, h := r.DrawingBufferSize()
	if err := r.dev.BeginPass(gpu.Pass{
		Target:     target,
		Width:      w,
		Height:     h,
		Clear:      true,
		ClearColor: r.clear,
		DepthTest:  true,
	}); err != nil {
		return fmt.Errorf("begin pass: %w", err)
	}

	var lights []*graph.Node
	var meshes []*graph.Node
	root.TraverseVisible(func(n *graph.Node) {
		switch {
		case n.Kind == graph.KindLight && n.Light != nil:
			lights = append(lights, n)
		case n.Kind == graph.KindMesh && n.Mesh != nil && n.Mesh.Geometry != nil && n.Mesh.Material != nil:
			meshes = append(meshes, n)
		}
	})

	if err := r.dev.UpdateUniformBlock(r.frame, r.frameBlock(cam, lights)); err != nil {
		return fmt.Errorf("frame block: %w", err)
	}

	var errs error
	for _, n := range meshes {
		errs = multierr.Append(errs, r.drawMesh(n))
	}
	return errs
}

func (r *Renderer) frameBlock(cam *camera.Perspective, lights []*graph.Node) []byte {
	var ambient math.Vec3
	var positions []math.Vec4
	var colors []math.Vec3
	for _, n := range lights {
		l := n.Light
		c := l.Color.Scale(l.Intensity)
		if l.Type == graph.LightAmbient {
			ambient = ambient.Add(c)
			continue
		}
		if len(positions) == MaxLights {
			continue
		}
		p := n.WorldMatrix().Translation()
		var wcomp float32
		if l.Type == graph.LightPoint {
			wcomp = 1
		}
		positions = append(positions, math.Vec4{p.X, p.Y, p.Z, wcomp})
		colors = append(colors, c)
	}

	eye := cam.Position()
	if cam.Node.Parent != nil {
		eye = cam.Node.WorldMatrix().Translation()
	}

	w := gpu.NewUniformWriter(frameBlockSize)
	w.Mat4(cam.View())
	w.Mat4(cam.Projection())
	w.Vec4(eye.X, eye.Y, eye.Z, 1)
	w.Vec4(ambient.X, ambient.Y, ambient.Z, 1)
	w.Int(int32(len(positions)))
	for i := 0; i < MaxLights; i++ {
		var p math.Vec4
		if i < len(positions) {
			p = positions[i]
		}
		w.Vec4(p[0], p[1], p[2], p[3])
	}
	for i := 0; i < MaxLights; i++ {
		var c math.Vec3
		if i < len(colors) {
			c = colors[i]
		}
		w.Vec4(c.X, c.Y, c.Z, 1)
	}
	return w.Bytes()
}

func (r *Renderer) drawMesh(n *graph.Node) error {
	geo, mat := n.Mesh.Geometry, n.Mesh.Material
	if err := r.uploadGeometry(geo); err != nil {
		return fmt.Errorf("mesh %q: %w", n.Name, err)
	}
	if err := r.uploadMaterial(mat); err != nil {
		return fmt.Errorf("mesh %q: %w", n.Name, err)
	}

	program := r.phong
	if mat.Kind == graph.MaterialBasic {
		program = r.basic
	}
	world := n.WorldMatrix()
	err := r.dev.Draw(gpu.DrawCall{
		Program:  program,
		Geometry: geo.Handle,
		Blocks:   []gpu.Handle{r.frame, mat.Handle},
		Textures: []gpu.Handle{r.mapHandle(mat, graph.MapColor), r.mapHandle(mat, graph.MapEmissive)},
		Uniforms: gpu.Uniforms{
			"model":        world,
			"normalMatrix": world.Normal3x3(),
		},
		// The device culls back faces only; back-only materials draw both.
		DoubleSided: mat.Side != graph.SideFront,
	})
	if err != nil {
		return fmt.Errorf("draw %q: %w", n.Name, err)
	}
	return nil
}

func (r *Renderer) mapHandle(mat *graph.Material, slot graph.MapSlot) gpu.Handle {
	if tex := mat.Maps[slot]; tex != nil && !tex.Handle.IsZero() {
		return tex.Handle
	}
	return r.white
}

func (r *Renderer) uploadGeometry(geo *graph.Geometry) error {
	if !geo.Handle.IsZero() {
		return nil
	}
	h, err := r.dev.CreateGeometry(geo.Data())
	if err != nil {
		return fmt.Errorf("upload geometry: %w", err)
	}
	geo.Handle = h
	return nil
}

func (r *Renderer) uploadMaterial(mat *graph.Material) error {
	for _, tex := range mat.Maps {
		if tex == nil || tex.Image == nil || !tex.Handle.IsZero() {
			continue
		}
		h, err := r.dev.CreateTexture(tex.Data())
		if err != nil {
			return fmt.Errorf("upload texture %q: %w", tex.Name, err)
		}
		tex.Handle = h
	}

	if mat.Handle.IsZero() {
		h, err := r.dev.CreateUniformBlock(materialBlockSize)
		if err != nil {
			return fmt.Errorf("material %q: %w", mat.Name, err)
		}
		mat.Handle = h
		mat.MarkDirty()
	}
	if !mat.Dirty() {
		return nil
	}
	if err := r.dev.UpdateUniformBlock(mat.Handle, materialBlock(mat)); err != nil {
		return fmt.Errorf("material %q: %w", mat.Name, err)
	}
	mat.MarkClean()
	return nil
}

func materialBlock(mat *graph.Material) []byte {
	var mask int32
	if tex := mat.Maps[graph.MapColor]; tex != nil && !tex.Handle.IsZero() {
		mask |= mapMaskColor
	}
	if tex := mat.Maps[graph.MapEmissive]; tex != nil && !tex.Handle.IsZero() {
		mask |= mapMaskEmissive
	}
	c := mat.Color()
	w := gpu.NewUniformWriter(materialBlockSize)
	w.Vec4(c.X, c.Y, c.Z, 1)
	w.Vec4(mat.Emissive.X, mat.Emissive.Y, mat.Emissive.Z, 1)
	w.Float(mat.Shininess)
	w.Int(mask)
	return w.Bytes()
}

// Dispose stops the animation loop and releases the built-in resources.
// Scene resources are released by the disposal walker. Calling Dispose
// again has no effect.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.loop = nil
	for _, h := range []gpu.Handle{r.frame, r.white, r.basic, r.phong} {
		if h.IsZero() {
			continue
		}
		if err := r.dev.Release(h); err != nil && !errors.Is(err, gpu.ErrUnknownHandle) {
			r.log.Warn("failed to release renderer resource", zap.Stringer("handle", h), zap.Error(err))
		}
	}
	r.phong, r.basic, r.white, r.frame = gpu.Handle{}, gpu.Handle{}, gpu.Handle{}, gpu.Handle{}
	r.log.Debug("renderer disposed")
}

// Disposed reports whether Dispose was called.
func (r *Renderer) Disposed() bool {
	return r.disposed
}
