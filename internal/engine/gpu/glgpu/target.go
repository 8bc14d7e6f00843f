package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// renderTarget is an offscreen framebuffer with a sampled color texture
// and a depth renderbuffer.
type renderTarget struct {
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
}

func newRenderTarget(width, height int) (*renderTarget, error) {
	rt := &renderTarget{width: int32(max(width, 1)), height: int32(max(height, 1))}

	gl.GenFramebuffers(1, &rt.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)

	gl.GenTextures(1, &rt.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, rt.colorTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.GenRenderbuffers(1, &rt.depthRBO)
	rt.allocate()

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, rt.colorTexture, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rt.depthRBO)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		rt.destroy()
		return nil, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return rt, nil
}

func (rt *renderTarget) allocate() {
	gl.BindTexture(gl.TEXTURE_2D, rt.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, rt.width, rt.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rt.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, rt.width, rt.height)
}

func (rt *renderTarget) resize(width, height int) {
	w, h := int32(max(width, 1)), int32(max(height, 1))
	if w == rt.width && h == rt.height {
		return
	}
	rt.width, rt.height = w, h
	rt.allocate()
}

func (rt *renderTarget) destroy() {
	if rt.fbo != 0 {
		gl.DeleteFramebuffers(1, &rt.fbo)
		rt.fbo = 0
	}
	if rt.colorTexture != 0 {
		gl.DeleteTextures(1, &rt.colorTexture)
		rt.colorTexture = 0
	}
	if rt.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &rt.depthRBO)
		rt.depthRBO = 0
	}
}
