// Package shader provides OpenGL shader compilation utilities.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
)

// Stage is one shader stage source.
type Stage struct {
	Type   uint32 // gl.VERTEX_SHADER, gl.COMPUTE_SHADER, ...
	Source string
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	return Link(
		Stage{Type: gl.VERTEX_SHADER, Source: vertexSrc},
		Stage{Type: gl.FRAGMENT_SHADER, Source: fragmentSrc},
	)
}

// CompileTessProgram links a vertex, tessellation control, tessellation
// evaluation and fragment pipeline.
func CompileTessProgram(vertexSrc, controlSrc, evalSrc, fragmentSrc string) (uint32, error) {
	return Link(
		Stage{Type: gl.VERTEX_SHADER, Source: vertexSrc},
		Stage{Type: gl.TESS_CONTROL_SHADER, Source: controlSrc},
		Stage{Type: gl.TESS_EVALUATION_SHADER, Source: evalSrc},
		Stage{Type: gl.FRAGMENT_SHADER, Source: fragmentSrc},
	)
}

// CompileCompute links a single compute shader into a program.
func CompileCompute(src string) (uint32, error) {
	return Link(Stage{Type: gl.COMPUTE_SHADER, Source: src})
}

// Link compiles every stage and links them into one program.
func Link(stages ...Stage) (uint32, error) {
	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()

	for _, st := range stages {
		s, err := compileShader(st.Source, st.Type, StageName(st.Type))
		if err != nil {
			return 0, err
		}
		shaders = append(shaders, s)
	}

	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

// StageName returns a readable name for a shader type.
func StageName(shaderType uint32) string {
	switch shaderType {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.TESS_CONTROL_SHADER:
		return "tess control"
	case gl.TESS_EVALUATION_SHADER:
		return "tess evaluation"
	case gl.GEOMETRY_SHADER:
		return "geometry"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	case gl.COMPUTE_SHADER:
		return "compute"
	}
	return fmt.Sprintf("shader 0x%x", shaderType)
}

// compileShader compiles a single shader of the given type.
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
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// GetUniform returns the uniform location for the given name.
// Returns -1 if the uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// MustGetUniform returns the uniform location for the given name.
// Panics if the uniform is not found (useful for required uniforms).
func MustGetUniform(program uint32, name string) int32 {
	loc := GetUniform(program, name)
	if loc < 0 {
		panic(fmt.Sprintf("uniform %q not found in program %d", name, program))
	}
	return loc
}

// Uniforms caches uniform locations of one program.
type Uniforms struct {
	program uint32
	locs    map[string]int32
}

// NewUniforms creates a location cache for program.
func NewUniforms(program uint32) *Uniforms {
	return &Uniforms{program: program, locs: make(map[string]int32)}
}

// Loc returns the cached location of name, querying it on first use.
func (u *Uniforms) Loc(name string) int32 {
	if loc, ok := u.locs[name]; ok {
		return loc
	}
	loc := GetUniform(u.program, name)
	u.locs[name] = loc
	return loc
}
