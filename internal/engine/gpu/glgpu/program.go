package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/pkg/math"
)

type program struct {
	id       uint32
	name     string
	uniforms map[string]int32
}

// newProgram compiles and links src, binds its uniform blocks to binding
// points and its samplers to texture units in declaration order.
func newProgram(src gpu.ProgramSource) (*program, error) {
	vert, err := compileShader(src.Vertex, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vert)

	frag, err := compileShader(src.Fragment, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(frag)

	id := gl.CreateProgram()
	gl.AttachShader(id, vert)
	gl.AttachShader(id, frag)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(id, logLen, nil, &log[0])
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("link: %s", gl.GoStr(&log[0]))
	}

	p := &program{id: id, name: src.Name, uniforms: make(map[string]int32)}

	for binding, block := range src.Blocks {
		index := gl.GetUniformBlockIndex(id, gl.Str(block+"\x00"))
		if index == gl.INVALID_INDEX {
			continue
		}
		gl.UniformBlockBinding(id, index, uint32(binding))
	}

	gl.UseProgram(id)
	for unit, sampler := range src.Samplers {
		if loc := p.location(sampler); loc >= 0 {
			gl.Uniform1i(loc, int32(unit))
		}
	}
	gl.UseProgram(0)

	return p, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, gl.GoStr(&log[0]))
	}

	return shader, nil
}

// location returns the cached uniform location, -1 for inactive uniforms.
func (p *program) location(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

func (p *program) apply(uniforms gpu.Uniforms) error {
	for name, value := range uniforms {
		loc := p.location(name)
		if loc < 0 {
			continue
		}
		switch v := value.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case int32:
			gl.Uniform1i(loc, v)
		case bool:
			var i int32
			if v {
				i = 1
			}
			gl.Uniform1i(loc, i)
		case math.Vec2:
			gl.Uniform2f(loc, v.X, v.Y)
		case math.Vec3:
			gl.Uniform3f(loc, v.X, v.Y, v.Z)
		case math.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case [9]float32:
			gl.UniformMatrix3fv(loc, 1, false, &v[0])
		default:
			return fmt.Errorf("program %s: unsupported uniform %s of type %T", p.name, name, value)
		}
	}
	return nil
}
