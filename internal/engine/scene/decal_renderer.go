package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/terraedit/internal/engine/scene/shaders"
	"github.com/Faultbox/terraedit/internal/engine/shader"
	"github.com/Faultbox/terraedit/internal/projection"
)

// DecalRenderer draws the brush outline by projecting a ring onto whatever
// surface the depth texture recorded inside the decal cube.
type DecalRenderer struct {
	program  uint32
	uniforms *shader.Uniforms

	vao uint32
	vbo uint32

	Color [4]float32
	Ring  float32 // ring width as a fraction of the radius
}

// NewDecalRenderer creates the decal program and its unit cube.
func NewDecalRenderer() (*DecalRenderer, error) {
	program, err := shader.CompileProgram(shaders.DecalVertexShader, shaders.DecalFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("decal shader: %w", err)
	}
	dr := &DecalRenderer{
		program:  program,
		uniforms: shader.NewUniforms(program),
		Color:    [4]float32{1.0, 0.85, 0.2, 0.9},
		Ring:     0.08,
	}

	cube := UnitCube()
	gl.GenVertexArrays(1, &dr.vao)
	gl.BindVertexArray(dr.vao)
	gl.GenBuffers(1, &dr.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, dr.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(cube)*4, unsafe.Pointer(&cube[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	return dr, nil
}

// Render draws the decal of frame.Model over the default framebuffer.
// depthTex holds the scene depth at the same aspect as the viewport.
func (dr *DecalRenderer) Render(frame projection.Frame, depthTex uint32, width, height int32) {
	invViewProj := frame.ProjectionView.Inverse()

	gl.UseProgram(dr.program)
	gl.UniformMatrix4fv(dr.uniforms.Loc("uViewProj"), 1, false, frame.ProjectionView.Ptr())
	gl.UniformMatrix4fv(dr.uniforms.Loc("uModel"), 1, false, frame.Model.Ptr())
	gl.UniformMatrix4fv(dr.uniforms.Loc("uInvViewProj"), 1, false, invViewProj.Ptr())
	gl.UniformMatrix4fv(dr.uniforms.Loc("uInvModel"), 1, false, frame.Decal.Ptr())
	gl.Uniform2f(dr.uniforms.Loc("uViewport"), float32(width), float32(height))
	gl.Uniform4f(dr.uniforms.Loc("uColor"), dr.Color[0], dr.Color[1], dr.Color[2], dr.Color[3])
	gl.Uniform1f(dr.uniforms.Loc("uRing"), dr.Ring)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, depthTex)
	gl.Uniform1i(dr.uniforms.Loc("uDepth"), 0)

	// Back faces only and no depth test, so the ring still shows with the
	// camera inside the cube.
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	gl.BindVertexArray(dr.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.Enable(gl.DEPTH_TEST)
}

// Destroy releases all resources.
func (dr *DecalRenderer) Destroy() {
	if dr.vao != 0 {
		gl.DeleteVertexArrays(1, &dr.vao)
		dr.vao = 0
	}
	if dr.vbo != 0 {
		gl.DeleteBuffers(1, &dr.vbo)
		dr.vbo = 0
	}
	if dr.program != 0 {
		gl.DeleteProgram(dr.program)
		dr.program = 0
	}
}

// UnitCube returns 36 positions (12 counter-clockwise triangles) of the
// cube [-0.5, 0.5]³.
func UnitCube() []float32 {
	corners := [8][3]float32{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
	}
	faces := [6][4]int{
		{4, 5, 6, 7}, // +Z
		{1, 0, 3, 2}, // -Z
		{5, 1, 2, 6}, // +X
		{0, 4, 7, 3}, // -X
		{7, 6, 2, 3}, // +Y
		{0, 1, 5, 4}, // -Y
	}
	out := make([]float32, 0, 36*3)
	for _, f := range faces {
		for _, i := range [6]int{f[0], f[1], f[2], f[0], f[2], f[3]} {
			out = append(out, corners[i][:]...)
		}
	}
	return out
}
