package picking

import (
	"math/rand"

	"github.com/Faultbox/retroscene/internal/engine/graph"
)

// Highlighter recolors hovered meshes. Only named meshes take part; the
// decorative geometry is unnamed.
type Highlighter struct {
	rng      *rand.Rand
	hovering bool
}

// NewHighlighter creates a highlighter drawing colors from rng.
func NewHighlighter(rng *rand.Rand) *Highlighter {
	return &Highlighter{rng: rng}
}

// Hover applies the hover result. A hit on a named mesh gets a random
// color; a miss restores every named mesh under root to white.
func (h *Highlighter) Hover(hit Hit, root *graph.Node) {
	if hit.OK() {
		n := hit.Node
		if n.Name != "" && n.Mesh != nil && n.Mesh.Material != nil {
			n.Mesh.Material.SetColor(graph.ColorFromHex(uint32(h.rng.Float64() * 0xffffff)))
			h.hovering = true
		}
		return
	}

	h.hovering = false
	if root == nil {
		return
	}
	root.Traverse(func(n *graph.Node) {
		if n.Kind == graph.KindMesh && n.Name != "" && n.Mesh != nil && n.Mesh.Material != nil {
			n.Mesh.Material.SetColor(graph.White)
		}
	})
}

// Hovering reports whether the last hover landed on a named mesh.
func (h *Highlighter) Hovering() bool {
	return h.hovering
}
