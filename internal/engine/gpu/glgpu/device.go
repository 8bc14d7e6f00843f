// Package glgpu implements gpu.Device on OpenGL 4.1 core.
package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
)

type geometry struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

type uniformBlock struct {
	ubo  uint32
	size int
}

// Device is an OpenGL implementation of gpu.Device.
// IMPORTANT: New must be called after the GL context is current, and every
// method on the thread that owns the context.
type Device struct {
	log *zap.Logger

	next       map[gpu.Kind]uint32
	geometries map[uint32]*geometry
	textures   map[uint32]uint32
	blocks     map[uint32]*uniformBlock
	programs   map[uint32]*program
	targets    map[uint32]*renderTarget

	quadVAO uint32
	quadVBO uint32

	info   gpu.Info
	closed bool
}

var _ gpu.Device = (*Device)(nil)

// New initializes OpenGL function pointers and creates a device.
func New(log *zap.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	d := &Device{
		log:        log,
		next:       make(map[gpu.Kind]uint32),
		geometries: make(map[uint32]*geometry),
		textures:   make(map[uint32]uint32),
		blocks:     make(map[uint32]*uniformBlock),
		programs:   make(map[uint32]*program),
		targets:    make(map[uint32]*renderTarget),
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	d.createQuad()
	return d, nil
}

func (d *Device) allocate(kind gpu.Kind) (gpu.Handle, error) {
	if d.closed {
		return gpu.Handle{}, gpu.ErrClosed
	}
	d.next[kind]++
	return gpu.Handle{Kind: kind, ID: d.next[kind]}, nil
}

func unknown(h gpu.Handle) error {
	return fmt.Errorf("%w: %s", gpu.ErrUnknownHandle, h)
}

// CreateGeometry uploads interleaved position/normal/uv vertices.
func (d *Device) CreateGeometry(data gpu.GeometryData) (gpu.Handle, error) {
	h, err := d.allocate(gpu.KindGeometry)
	if err != nil {
		return h, err
	}

	count := len(data.Positions) / 3
	const stride = 8
	vertices := make([]float32, count*stride)
	for i := 0; i < count; i++ {
		v := vertices[i*stride:]
		copy(v[0:3], data.Positions[i*3:i*3+3])
		if len(data.Normals) >= (i+1)*3 {
			copy(v[3:6], data.Normals[i*3:i*3+3])
		}
		if len(data.UVs) >= (i+1)*2 {
			copy(v[6:8], data.UVs[i*2:i*2+2])
		}
	}

	g := &geometry{indexCount: int32(len(data.Indices))}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	if len(vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)
	}
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride*4, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride*4, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	if len(data.Indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, unsafe.Pointer(&data.Indices[0]), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)

	d.geometries[h.ID] = g
	return h, nil
}

// CreateTexture uploads an RGBA8 image with mipmaps.
func (d *Device) CreateTexture(data gpu.TextureData) (gpu.Handle, error) {
	if data.Width <= 0 || data.Height <= 0 || len(data.Pixels) != data.Width*data.Height*4 {
		return gpu.Handle{}, fmt.Errorf("malformed texture %dx%d with %d bytes", data.Width, data.Height, len(data.Pixels))
	}
	h, err := d.allocate(gpu.KindTexture)
	if err != nil {
		return h, err
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(data.Width), int32(data.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&data.Pixels[0]))

	wrap := int32(gl.CLAMP_TO_EDGE)
	if data.Repeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	if data.Filter == gpu.FilterNearest {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	} else {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	}

	d.textures[h.ID] = tex
	return h, nil
}

// CreateUniformBlock allocates a uniform buffer of size bytes.
func (d *Device) CreateUniformBlock(size int) (gpu.Handle, error) {
	h, err := d.allocate(gpu.KindUniformBlock)
	if err != nil {
		return h, err
	}
	b := &uniformBlock{size: size}
	gl.GenBuffers(1, &b.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	d.blocks[h.ID] = b
	return h, nil
}

// UpdateUniformBlock replaces the contents of a uniform buffer.
func (d *Device) UpdateUniformBlock(h gpu.Handle, data []byte) error {
	b, ok := d.blocks[h.ID]
	if !ok || h.Kind != gpu.KindUniformBlock {
		return unknown(h)
	}
	if len(data) > b.size {
		return fmt.Errorf("uniform block %s: %d bytes exceed size %d", h, len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data), unsafe.Pointer(&data[0]))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return nil
}

// CreateProgram compiles and links a shader program.
func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Handle, error) {
	p, err := newProgram(src)
	if err != nil {
		return gpu.Handle{}, fmt.Errorf("program %s: %w", src.Name, err)
	}
	h, err := d.allocate(gpu.KindProgram)
	if err != nil {
		gl.DeleteProgram(p.id)
		return h, err
	}
	d.programs[h.ID] = p
	d.log.Debug("shader program created", zap.String("name", src.Name), zap.Uint32("program", p.id))
	return h, nil
}

// CreateRenderTarget creates an offscreen framebuffer.
func (d *Device) CreateRenderTarget(width, height int) (gpu.Handle, error) {
	rt, err := newRenderTarget(width, height)
	if err != nil {
		return gpu.Handle{}, err
	}
	h, err := d.allocate(gpu.KindRenderTarget)
	if err != nil {
		rt.destroy()
		return h, err
	}
	d.targets[h.ID] = rt
	return h, nil
}

// ResizeRenderTarget reallocates the attachments when the size changes.
func (d *Device) ResizeRenderTarget(h gpu.Handle, width, height int) error {
	rt, ok := d.targets[h.ID]
	if !ok || h.Kind != gpu.KindRenderTarget {
		return unknown(h)
	}
	rt.resize(width, height)
	return nil
}

// Release deletes the API objects behind h.
func (d *Device) Release(h gpu.Handle) error {
	switch h.Kind {
	case gpu.KindGeometry:
		g, ok := d.geometries[h.ID]
		if !ok {
			return unknown(h)
		}
		gl.DeleteVertexArrays(1, &g.vao)
		gl.DeleteBuffers(1, &g.vbo)
		gl.DeleteBuffers(1, &g.ebo)
		delete(d.geometries, h.ID)
	case gpu.KindTexture:
		tex, ok := d.textures[h.ID]
		if !ok {
			return unknown(h)
		}
		gl.DeleteTextures(1, &tex)
		delete(d.textures, h.ID)
	case gpu.KindUniformBlock:
		b, ok := d.blocks[h.ID]
		if !ok {
			return unknown(h)
		}
		gl.DeleteBuffers(1, &b.ubo)
		delete(d.blocks, h.ID)
	case gpu.KindProgram:
		p, ok := d.programs[h.ID]
		if !ok {
			return unknown(h)
		}
		gl.DeleteProgram(p.id)
		delete(d.programs, h.ID)
	case gpu.KindRenderTarget:
		rt, ok := d.targets[h.ID]
		if !ok {
			return unknown(h)
		}
		rt.destroy()
		delete(d.targets, h.ID)
	default:
		return unknown(h)
	}
	return nil
}

// BeginPass binds the pass target, sets the viewport and clears.
func (d *Device) BeginPass(p gpu.Pass) error {
	fbo := uint32(0)
	if !p.Target.IsZero() {
		rt, ok := d.targets[p.Target.ID]
		if !ok || p.Target.Kind != gpu.KindRenderTarget {
			return unknown(p.Target)
		}
		fbo = rt.fbo
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, int32(max(p.Width, 1)), int32(max(p.Height, 1)))

	if p.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if p.Clear {
		gl.ClearColor(p.ClearColor[0], p.ClearColor[1], p.ClearColor[2], p.ClearColor[3])
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	}
	return nil
}

// Draw issues one draw call.
func (d *Device) Draw(call gpu.DrawCall) error {
	p, ok := d.programs[call.Program.ID]
	if !ok || call.Program.Kind != gpu.KindProgram {
		return unknown(call.Program)
	}
	gl.UseProgram(p.id)

	for binding, bh := range call.Blocks {
		b, ok := d.blocks[bh.ID]
		if !ok || bh.Kind != gpu.KindUniformBlock {
			return unknown(bh)
		}
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(binding), b.ubo)
	}
	for unit, th := range call.Textures {
		tex, err := d.textureID(th)
		if err != nil {
			return err
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, tex)
	}
	if err := p.apply(call.Uniforms); err != nil {
		return err
	}

	if call.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}

	triangles := 2
	if call.Geometry.IsZero() {
		gl.BindVertexArray(d.quadVAO)
		gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	} else {
		g, ok := d.geometries[call.Geometry.ID]
		if !ok || call.Geometry.Kind != gpu.KindGeometry {
			return unknown(call.Geometry)
		}
		gl.BindVertexArray(g.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, 0)
		triangles = int(g.indexCount) / 3
	}
	gl.BindVertexArray(0)

	d.info.Calls++
	d.info.Triangles += triangles
	return nil
}

// DrawQuad draws a fullscreen quad with program.
func (d *Device) DrawQuad(program gpu.Handle, textures []gpu.Handle, uniforms gpu.Uniforms) error {
	return d.Draw(gpu.DrawCall{Program: program, Textures: textures, Uniforms: uniforms, DoubleSided: true})
}

func (d *Device) textureID(h gpu.Handle) (uint32, error) {
	switch h.Kind {
	case gpu.KindTexture:
		if tex, ok := d.textures[h.ID]; ok {
			return tex, nil
		}
	case gpu.KindRenderTarget:
		if rt, ok := d.targets[h.ID]; ok {
			return rt.colorTexture, nil
		}
	}
	return 0, unknown(h)
}

// ReadPixels reads RGBA pixels from a target, bottom row first.
func (d *Device) ReadPixels(target gpu.Handle, width, height int) ([]byte, error) {
	fbo := uint32(0)
	if !target.IsZero() {
		rt, ok := d.targets[target.ID]
		if !ok || target.Kind != gpu.KindRenderTarget {
			return nil, unknown(target)
		}
		fbo = rt.fbo
	}

	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, nil
	}

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
	return pixels, nil
}

// Info returns draw statistics and live resource counts.
func (d *Device) Info() gpu.Info {
	info := d.info
	info.Geometries = len(d.geometries)
	info.Textures = len(d.textures)
	info.UniformBlocks = len(d.blocks)
	info.Programs = len(d.programs)
	info.RenderTargets = len(d.targets)
	return info
}

// ResetFrameInfo zeroes the per-frame counters.
func (d *Device) ResetFrameInfo() {
	d.info.Calls = 0
	d.info.Triangles = 0
}

// Close releases the device's own objects and reports resources the
// scene failed to release.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var err error
	if leaked := len(d.geometries) + len(d.textures) + len(d.blocks) + len(d.programs) + len(d.targets); leaked > 0 {
		d.log.Warn("GPU resources still live at close", zap.Int("count", leaked))
		for id := range d.targets {
			err = multierr.Append(err, d.Release(gpu.Handle{Kind: gpu.KindRenderTarget, ID: id}))
		}
		for id := range d.programs {
			err = multierr.Append(err, d.Release(gpu.Handle{Kind: gpu.KindProgram, ID: id}))
		}
	}
	gl.DeleteVertexArrays(1, &d.quadVAO)
	gl.DeleteBuffers(1, &d.quadVBO)
	return err
}

func (d *Device) createQuad() {
	vertices := []float32{
		-1, -1, 0, 0,
		1, -1, 1, 0,
		-1, 1, 0, 1,
		1, 1, 1, 1,
	}
	gl.GenVertexArrays(1, &d.quadVAO)
	gl.BindVertexArray(d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, 4*4, 2*4)
	gl.EnableVertexAttribArray(2)
	gl.BindVertexArray(0)
}
