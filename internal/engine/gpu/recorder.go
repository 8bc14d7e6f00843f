package gpu

import (
	"fmt"
	"sort"
)

// Recorder is a headless Device. It allocates handles, tracks live
// resources, counts releases per handle and records passes and draws.
// Tests and offline tools use it in place of a real graphics context.
type Recorder struct {
	next     map[Kind]uint32
	live     map[Handle]*recorded
	releases map[Handle]int
	passes   []Pass
	draws    []DrawRecord
	info     Info
	closed   bool

	// FailCreate, when set, is returned by every Create call.
	FailCreate error
}

type recorded struct {
	width, height int
	data          []byte
	program       ProgramSource
}

// DrawRecord is one recorded draw, with the pass target it was issued to.
type DrawRecord struct {
	Target Handle
	DrawCall
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		next:     make(map[Kind]uint32),
		live:     make(map[Handle]*recorded),
		releases: make(map[Handle]int),
	}
}

func (r *Recorder) create(kind Kind, res *recorded) (Handle, error) {
	if r.closed {
		return Handle{}, ErrClosed
	}
	if r.FailCreate != nil {
		return Handle{}, r.FailCreate
	}
	r.next[kind]++
	h := Handle{Kind: kind, ID: r.next[kind]}
	r.live[h] = res
	return h, nil
}

func (r *Recorder) lookup(h Handle, kind Kind) (*recorded, error) {
	res, ok := r.live[h]
	if !ok || h.Kind != kind {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return res, nil
}

// CreateGeometry implements Device.
func (r *Recorder) CreateGeometry(data GeometryData) (Handle, error) {
	if len(data.Positions)%3 != 0 || len(data.Indices)%3 != 0 {
		return Handle{}, fmt.Errorf("gpu: malformed geometry (%d floats, %d indices)", len(data.Positions), len(data.Indices))
	}
	return r.create(KindGeometry, &recorded{width: len(data.Indices) / 3})
}

// CreateTexture implements Device.
func (r *Recorder) CreateTexture(data TextureData) (Handle, error) {
	if data.Width <= 0 || data.Height <= 0 || len(data.Pixels) != data.Width*data.Height*4 {
		return Handle{}, fmt.Errorf("gpu: malformed texture %dx%d with %d bytes", data.Width, data.Height, len(data.Pixels))
	}
	return r.create(KindTexture, &recorded{width: data.Width, height: data.Height})
}

// CreateUniformBlock implements Device.
func (r *Recorder) CreateUniformBlock(size int) (Handle, error) {
	return r.create(KindUniformBlock, &recorded{data: make([]byte, size)})
}

// UpdateUniformBlock implements Device.
func (r *Recorder) UpdateUniformBlock(h Handle, data []byte) error {
	res, err := r.lookup(h, KindUniformBlock)
	if err != nil {
		return err
	}
	res.data = append(res.data[:0], data...)
	return nil
}

// CreateProgram implements Device.
func (r *Recorder) CreateProgram(src ProgramSource) (Handle, error) {
	return r.create(KindProgram, &recorded{program: src})
}

// CreateRenderTarget implements Device.
func (r *Recorder) CreateRenderTarget(width, height int) (Handle, error) {
	return r.create(KindRenderTarget, &recorded{width: max(width, 1), height: max(height, 1)})
}

// ResizeRenderTarget implements Device.
func (r *Recorder) ResizeRenderTarget(h Handle, width, height int) error {
	res, err := r.lookup(h, KindRenderTarget)
	if err != nil {
		return err
	}
	res.width, res.height = max(width, 1), max(height, 1)
	return nil
}

// Release implements Device.
func (r *Recorder) Release(h Handle) error {
	if _, ok := r.live[h]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	delete(r.live, h)
	r.releases[h]++
	return nil
}

// BeginPass implements Device.
func (r *Recorder) BeginPass(p Pass) error {
	if !p.Target.IsZero() {
		if _, err := r.lookup(p.Target, KindRenderTarget); err != nil {
			return err
		}
	}
	r.passes = append(r.passes, p)
	return nil
}

// Draw implements Device.
func (r *Recorder) Draw(call DrawCall) error {
	if _, err := r.lookup(call.Program, KindProgram); err != nil {
		return err
	}
	triangles := 2
	if !call.Geometry.IsZero() {
		geo, err := r.lookup(call.Geometry, KindGeometry)
		if err != nil {
			return err
		}
		triangles = geo.width
	}
	for _, b := range call.Blocks {
		if _, err := r.lookup(b, KindUniformBlock); err != nil {
			return err
		}
	}
	for _, t := range call.Textures {
		if _, ok := r.live[t]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownHandle, t)
		}
	}

	var target Handle
	if n := len(r.passes); n > 0 {
		target = r.passes[n-1].Target
	}
	r.draws = append(r.draws, DrawRecord{Target: target, DrawCall: call})
	r.info.Calls++
	r.info.Triangles += triangles
	return nil
}

// DrawQuad implements Device.
func (r *Recorder) DrawQuad(program Handle, textures []Handle, uniforms Uniforms) error {
	return r.Draw(DrawCall{Program: program, Textures: textures, Uniforms: uniforms})
}

// ReadPixels implements Device. The recorder has no pixels; it returns a
// zeroed buffer of the right size.
func (r *Recorder) ReadPixels(target Handle, width, height int) ([]byte, error) {
	if !target.IsZero() {
		if _, err := r.lookup(target, KindRenderTarget); err != nil {
			return nil, err
		}
	}
	return make([]byte, width*height*4), nil
}

// Info implements Device.
func (r *Recorder) Info() Info {
	info := r.info
	info.Geometries = r.LiveCount(KindGeometry)
	info.Textures = r.LiveCount(KindTexture)
	info.UniformBlocks = r.LiveCount(KindUniformBlock)
	info.Programs = r.LiveCount(KindProgram)
	info.RenderTargets = r.LiveCount(KindRenderTarget)
	return info
}

// ResetFrameInfo implements Device.
func (r *Recorder) ResetFrameInfo() {
	r.info.Calls = 0
	r.info.Triangles = 0
}

// Close implements Device. Resources still live are reported by Live.
func (r *Recorder) Close() error {
	r.closed = true
	return nil
}

// LiveCount returns the number of live resources of a kind.
func (r *Recorder) LiveCount(kind Kind) int {
	n := 0
	for h := range r.live {
		if h.Kind == kind {
			n++
		}
	}
	return n
}

// Live returns every live handle, ordered by kind then ID.
func (r *Recorder) Live() []Handle {
	handles := make([]Handle, 0, len(r.live))
	for h := range r.live {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		if handles[i].Kind != handles[j].Kind {
			return handles[i].Kind < handles[j].Kind
		}
		return handles[i].ID < handles[j].ID
	})
	return handles
}

// Releases returns how many times h was successfully released.
func (r *Recorder) Releases(h Handle) int {
	return r.releases[h]
}

// Released returns every handle released at least once.
func (r *Recorder) Released() map[Handle]int {
	out := make(map[Handle]int, len(r.releases))
	for h, n := range r.releases {
		out[h] = n
	}
	return out
}

// TargetSize returns the current size of a live render target.
func (r *Recorder) TargetSize(h Handle) (width, height int, ok bool) {
	res, err := r.lookup(h, KindRenderTarget)
	if err != nil {
		return 0, 0, false
	}
	return res.width, res.height, true
}

// BlockData returns the last data uploaded to a uniform block.
func (r *Recorder) BlockData(h Handle) []byte {
	res, err := r.lookup(h, KindUniformBlock)
	if err != nil {
		return nil
	}
	return res.data
}

// ProgramName returns the name a program was created with.
func (r *Recorder) ProgramName(h Handle) string {
	res, err := r.lookup(h, KindProgram)
	if err != nil {
		return ""
	}
	return res.program.Name
}

// Passes returns the recorded passes.
func (r *Recorder) Passes() []Pass {
	return r.passes
}

// Draws returns the recorded draws.
func (r *Recorder) Draws() []DrawRecord {
	return r.draws
}

// ResetRecords forgets recorded passes and draws.
func (r *Recorder) ResetRecords() {
	r.passes = nil
	r.draws = nil
}
