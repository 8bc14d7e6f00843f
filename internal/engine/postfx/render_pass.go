package postfx

import (
	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/internal/engine/renderer"
)

// RenderPass draws the scene graph. It ignores its input.
type RenderPass struct {
	base
	renderer *renderer.Renderer
	root     *graph.Node
	camera   *camera.Perspective
}

// NewRenderPass creates the base scene pass.
func NewRenderPass(r *renderer.Renderer, root *graph.Node, cam *camera.Perspective) *RenderPass {
	return &RenderPass{
		base:     base{name: "render", width: 1, height: 1, enabled: true},
		renderer: r,
		root:     root,
		camera:   cam,
	}
}

// Render implements Pass.
func (p *RenderPass) Render(_, write Target) error {
	return p.renderer.Render(p.root, p.camera, write.Handle)
}

// Dispose implements Pass. The renderer is owned by the caller.
func (p *RenderPass) Dispose() {}
