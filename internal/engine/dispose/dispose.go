// Package dispose releases every GPU resource reachable from a set of
// roots exactly once.
package dispose

import (
	"errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/graph"
)

// Disposer is anything with its own release routine, such as the
// controller or the post-processing composer. Disposers are tracked by
// pointer identity; nil pointers and non-pointer values are skipped.
type Disposer interface {
	Dispose()
}

// Releaser frees GPU handles. gpu.Device satisfies it.
type Releaser interface {
	Release(h gpu.Handle) error
}

// Stats counts what one Dispose call did.
type Stats struct {
	Nodes    int // graph nodes visited
	Released int // GPU handles released
	Disposed int // Disposer values disposed
	Skipped  int // values with nothing to release
}

// Walker tracks visited objects by identity, so repeated and overlapping
// Dispose calls never release anything twice.
type Walker struct {
	dev Releaser
	log *zap.Logger

	nodes     map[graph.ID]struct{}
	materials map[graph.ID]struct{}
	handles   map[gpu.Handle]struct{}
	disposers map[disposerKey]struct{}

	stats Stats
}

// New creates a walker releasing through dev.
func New(dev Releaser, log *zap.Logger) *Walker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{
		dev:       dev,
		log:       log,
		nodes:     make(map[graph.ID]struct{}),
		materials: make(map[graph.ID]struct{}),
		handles:   make(map[gpu.Handle]struct{}),
		disposers: make(map[disposerKey]struct{}),
	}
}

// Dispose walks each root. Accepted roots are *graph.Node,
// *graph.Geometry, *graph.Material, *graph.Texture, gpu.Handle, Disposer
// and nil; anything else is skipped.
func (w *Walker) Dispose(roots ...any) Stats {
	w.stats = Stats{}
	for _, r := range roots {
		w.visit(r)
	}
	return w.stats
}

func (w *Walker) visit(v any) {
	switch x := v.(type) {
	case nil:
	case *graph.Node:
		w.node(x)
	case *graph.Geometry:
		if x != nil {
			w.release(&x.Handle)
		}
	case *graph.Material:
		w.material(x)
	case *graph.Texture:
		if x != nil {
			w.release(&x.Handle)
		}
	case gpu.Handle:
		h := x
		w.release(&h)
	case Disposer:
		w.disposer(x)
	default:
		w.stats.Skipped++
	}
}

// node releases children first, then the geometry, the material maps in
// slot order, the material and finally the node's own resource.
func (w *Walker) node(n *graph.Node) {
	if n == nil {
		return
	}
	if _, seen := w.nodes[n.ID]; seen {
		return
	}
	w.nodes[n.ID] = struct{}{}
	w.stats.Nodes++

	for _, c := range n.Children {
		w.node(c)
	}
	if n.Mesh != nil {
		if n.Mesh.Geometry != nil {
			w.release(&n.Mesh.Geometry.Handle)
		}
		w.material(n.Mesh.Material)
	}
	if n.Resource != nil {
		w.visit(n.Resource)
	}
}

func (w *Walker) material(m *graph.Material) {
	if m == nil {
		return
	}
	if _, seen := w.materials[m.ID]; seen {
		return
	}
	w.materials[m.ID] = struct{}{}

	for _, slot := range graph.MapSlots() {
		if tex := m.Maps[slot]; tex != nil {
			w.release(&tex.Handle)
		}
	}
	w.release(&m.Handle)
}

type disposerKey struct {
	typ reflect.Type
	ptr uintptr
}

func (w *Walker) disposer(d Disposer) {
	v := reflect.ValueOf(d)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		w.stats.Skipped++
		return
	}
	key := disposerKey{typ: v.Type(), ptr: v.Pointer()}
	if _, seen := w.disposers[key]; seen {
		return
	}
	w.disposers[key] = struct{}{}
	d.Dispose()
	w.stats.Disposed++
}

// release frees *h once and clears it. Handles that were never uploaded
// or that the device no longer knows are skipped.
func (w *Walker) release(h *gpu.Handle) {
	if h.IsZero() {
		w.stats.Skipped++
		return
	}
	if _, seen := w.handles[*h]; seen {
		*h = gpu.Handle{}
		return
	}
	w.handles[*h] = struct{}{}

	err := w.dev.Release(*h)
	switch {
	case err == nil:
		w.stats.Released++
	case errors.Is(err, gpu.ErrUnknownHandle):
		w.stats.Skipped++
	default:
		w.log.Warn("failed to release GPU resource", zap.Stringer("handle", *h), zap.Error(err))
	}
	*h = gpu.Handle{}
}
