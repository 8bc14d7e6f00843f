// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// Uniform block names, bound in this order by every scene program.
const (
	FrameBlock    = "Frame"
	MaterialBlock = "Material"
)

// MeshVertexShader is the shared vertex shader for lit and unlit meshes.
//
//go:embed mesh.vert
var MeshVertexShader string

// PhongFragmentShader shades meshes with ambient, directional and point lights.
//
//go:embed phong.frag
var PhongFragmentShader string

// BasicFragmentShader outputs the material color without lighting.
//
//go:embed basic.frag
var BasicFragmentShader string

// QuadVertexShader is the fullscreen quad vertex shader for post-processing.
//
//go:embed quad.vert
var QuadVertexShader string

// PixelFragmentShader snaps UVs to a pixel grid.
//
//go:embed pixel.frag
var PixelFragmentShader string

// GlitchFragmentShader is the digital glitch effect.
//
//go:embed glitch.frag
var GlitchFragmentShader string
