package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourcesEmbedded(t *testing.T) {
	sources := map[string]string{
		"mesh.vert":   MeshVertexShader,
		"phong.frag":  PhongFragmentShader,
		"basic.frag":  BasicFragmentShader,
		"quad.vert":   QuadVertexShader,
		"pixel.frag":  PixelFragmentShader,
		"glitch.frag": GlitchFragmentShader,
	}
	for name, src := range sources {
		assert.Truef(t, strings.HasPrefix(src, "#version 410 core"), "%s: missing version line", name)
	}
}

func TestBlocksDeclared(t *testing.T) {
	assert.Contains(t, MeshVertexShader, "uniform "+FrameBlock)
	assert.Contains(t, PhongFragmentShader, "uniform "+FrameBlock)
	assert.Contains(t, PhongFragmentShader, "uniform "+MaterialBlock)
	assert.Contains(t, BasicFragmentShader, "uniform "+MaterialBlock)
}

func TestPostProcessUniforms(t *testing.T) {
	assert.Contains(t, PixelFragmentShader, "uniform vec2 resolution")
	assert.Contains(t, PixelFragmentShader, "uniform float pixelSize")
	assert.Contains(t, GlitchFragmentShader, "uniform sampler2D tDisp")
	assert.Contains(t, GlitchFragmentShader, "uniform vec2 resolution")
}
