// Package gpu defines the device boundary between the scene and the
// graphics API. Every GPU resource is addressed by a typed Handle so that
// ownership can be tracked (and released exactly once) without holding
// API objects directly.
package gpu

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/retroscene/pkg/math"
)

// ErrUnknownHandle is returned when a handle was never created or has
// already been released.
var ErrUnknownHandle = errors.New("gpu: unknown or released handle")

// ErrClosed is returned by a device after Close.
var ErrClosed = errors.New("gpu: device closed")

// Kind is the type of a GPU resource.
type Kind uint8

const (
	KindNone Kind = iota
	KindGeometry
	KindTexture
	KindUniformBlock
	KindProgram
	KindRenderTarget
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindGeometry:
		return "geometry"
	case KindTexture:
		return "texture"
	case KindUniformBlock:
		return "uniform-block"
	case KindProgram:
		return "program"
	case KindRenderTarget:
		return "render-target"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Handle identifies a GPU resource. The zero Handle is "no resource"; for
// render targets it also names the window's default framebuffer.
type Handle struct {
	Kind Kind
	ID   uint32
}

// IsZero reports whether h refers to no resource.
func (h Handle) IsZero() bool {
	return h.ID == 0
}

// String formats the handle as kind#id.
func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

// GeometryData is indexed triangle geometry. Positions and normals hold
// xyz triples, UVs hold uv pairs; Normals and UVs may be empty.
type GeometryData struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
}

// Filter selects texture sampling.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
)

// TextureData is an RGBA8 image.
type TextureData struct {
	Width, Height int
	Pixels        []byte
	Filter        Filter
	Repeat        bool
}

// ProgramSource describes a shader program. Uniform blocks are bound to
// binding points in Blocks order and samplers to texture units in
// Samplers order.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
	Blocks   []string
	Samplers []string
}

// Uniforms maps uniform names to values. Supported value types are
// float32, int32, bool, math.Vec2, math.Vec3, math.Mat4 and [9]float32.
type Uniforms map[string]any

// DrawCall draws indexed geometry. A zero Geometry draws a fullscreen quad.
// A render target bound in Textures samples its color attachment.
type DrawCall struct {
	Program     Handle
	Geometry    Handle
	Blocks      []Handle
	Textures    []Handle
	Uniforms    Uniforms
	DoubleSided bool
}

// Pass selects the render target for subsequent draws.
type Pass struct {
	Target        Handle // zero: default framebuffer
	Width, Height int
	Clear         bool
	ClearColor    [4]float32
	DepthTest     bool
}

// Info reports per-frame draw statistics and live resource counts.
type Info struct {
	Calls         int
	Triangles     int
	Geometries    int
	Textures      int
	UniformBlocks int
	Programs      int
	RenderTargets int
}

// Device creates, uses and releases GPU resources. Implementations are not
// safe for concurrent use; all calls happen on the render thread.
type Device interface {
	CreateGeometry(data GeometryData) (Handle, error)
	CreateTexture(data TextureData) (Handle, error)
	CreateUniformBlock(size int) (Handle, error)
	UpdateUniformBlock(h Handle, data []byte) error
	CreateProgram(src ProgramSource) (Handle, error)
	CreateRenderTarget(width, height int) (Handle, error)
	ResizeRenderTarget(h Handle, width, height int) error

	// Release frees a resource. Releasing an unknown or already released
	// handle returns ErrUnknownHandle and has no other effect.
	Release(h Handle) error

	BeginPass(p Pass) error
	Draw(call DrawCall) error
	DrawQuad(program Handle, textures []Handle, uniforms Uniforms) error
	ReadPixels(target Handle, width, height int) ([]byte, error)

	Info() Info
	ResetFrameInfo()
	Close() error
}

// UniformWriter packs values into a std140 uniform block.
type UniformWriter struct {
	buf []byte
}

// NewUniformWriter returns a writer with capacity for size bytes.
func NewUniformWriter(size int) *UniformWriter {
	return &UniformWriter{buf: make([]byte, 0, size)}
}

func (w *UniformWriter) align(n int) {
	for len(w.buf)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *UniformWriter) put(f float32) {
	bits := gomath.Float32bits(f)
	w.buf = append(w.buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
}

// Float writes a scalar.
func (w *UniformWriter) Float(f float32) {
	w.align(4)
	w.put(f)
}

// Int writes a 32-bit signed integer.
func (w *UniformWriter) Int(i int32) {
	w.align(4)
	u := uint32(i)
	w.buf = append(w.buf, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

// Vec3 writes a vec3 followed by the padding std140 requires before the
// next vec4-aligned member.
func (w *UniformWriter) Vec3(v math.Vec3) {
	w.align(16)
	w.put(v.X)
	w.put(v.Y)
	w.put(v.Z)
}

// Vec4 writes a vec4.
func (w *UniformWriter) Vec4(x, y, z, a float32) {
	w.align(16)
	w.put(x)
	w.put(y)
	w.put(z)
	w.put(a)
}

// Mat4 writes a column-major mat4.
func (w *UniformWriter) Mat4(m math.Mat4) {
	w.align(16)
	for _, f := range m {
		w.put(f)
	}
}

// Bytes returns the block padded to a multiple of 16 bytes.
func (w *UniformWriter) Bytes() []byte {
	w.align(16)
	return w.buf
}
