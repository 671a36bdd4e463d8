package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/terraedit/internal/engine/lighting"
	"github.com/Faultbox/terraedit/internal/engine/scene/shaders"
	"github.com/Faultbox/terraedit/internal/engine/shader"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

// MaxTessellationLevel is the highest level every 4.3 driver must accept.
const MaxTessellationLevel = 64

// TerrainRenderer draws the patch plane displaced by the height texture and
// lit from the normal texture.
type TerrainRenderer struct {
	// Shader
	program uint32

	// Uniform locations
	locViewProj      int32
	locHeights       int32
	locNormals       int32
	locVerticalScale int32
	locTessLevel     int32
	locLightDir      int32
	locAmbient       int32
	locDiffuse       int32
	locWireframe     int32

	// Control mesh
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32

	// Bounds
	Bounds terrain.Bounds
}

// NewTerrainRenderer creates a new terrain renderer.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	tr := &TerrainRenderer{}

	program, err := shader.CompileTessProgram(
		shaders.TerrainVertexShader,
		shaders.TerrainControlShader,
		shaders.TerrainEvalShader,
		shaders.TerrainFragmentShader,
	)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	tr.program = program

	tr.locViewProj = shader.GetUniform(program, "uViewProj")
	tr.locHeights = shader.GetUniform(program, "uHeights")
	tr.locNormals = shader.GetUniform(program, "uNormals")
	tr.locVerticalScale = shader.GetUniform(program, "uVerticalScale")
	tr.locTessLevel = shader.GetUniform(program, "uTessLevel")
	tr.locLightDir = shader.GetUniform(program, "uLightDir")
	tr.locAmbient = shader.GetUniform(program, "uAmbient")
	tr.locDiffuse = shader.GetUniform(program, "uDiffuse")
	tr.locWireframe = shader.GetUniform(program, "uWireframe")

	return tr, nil
}

// LoadMesh uploads the terrain control mesh.
func (tr *TerrainRenderer) LoadMesh(mesh *terrain.Mesh) {
	tr.clearMesh()
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return
	}

	gl.GenVertexArrays(1, &tr.vao)
	gl.BindVertexArray(tr.vao)

	gl.GenBuffers(1, &tr.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	vertexSize := int(unsafe.Sizeof(terrain.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexSize, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	// TexCoord (location 1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &tr.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, tr.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	tr.indexCount = int32(len(mesh.Indices))
	tr.Bounds = mesh.Bounds
}

// TerrainPass is the per-frame input of the terrain pass.
type TerrainPass struct {
	ViewProj      math.Mat4
	Heights       uint32 // r32f height texture
	Normals       uint32 // rgba8 packed normal texture
	VerticalScale float32
	TessLevel     float32
	Sun           lighting.Sun
	Wireframe     bool
}

// Render draws the terrain into the bound framebuffer.
func (tr *TerrainRenderer) Render(p TerrainPass) {
	if tr.vao == 0 {
		return
	}

	gl.UseProgram(tr.program)

	gl.UniformMatrix4fv(tr.locViewProj, 1, false, p.ViewProj.Ptr())
	gl.Uniform1f(tr.locVerticalScale, p.VerticalScale)
	gl.Uniform1f(tr.locTessLevel, ClampTessLevel(p.TessLevel))

	dir := p.Sun.Direction()
	gl.Uniform3f(tr.locLightDir, dir.X, dir.Y, dir.Z)
	gl.Uniform3f(tr.locAmbient, p.Sun.Ambient[0], p.Sun.Ambient[1], p.Sun.Ambient[2])
	gl.Uniform3f(tr.locDiffuse, p.Sun.Diffuse[0], p.Sun.Diffuse[1], p.Sun.Diffuse[2])

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, p.Heights)
	gl.Uniform1i(tr.locHeights, 0)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, p.Normals)
	gl.Uniform1i(tr.locNormals, 1)

	if p.Wireframe {
		gl.Uniform1i(tr.locWireframe, 1)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.Uniform1i(tr.locWireframe, 0)
	}

	gl.BindVertexArray(tr.vao)
	gl.PatchParameteri(gl.PATCH_VERTICES, 4)
	gl.DrawElements(gl.PATCHES, tr.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)

	if p.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

// ClampTessLevel keeps a tessellation level inside [1, MaxTessellationLevel].
func ClampTessLevel(level float32) float32 {
	if !(level >= 1) {
		return 1
	}
	return min(level, MaxTessellationLevel)
}

func (tr *TerrainRenderer) clearMesh() {
	if tr.vao != 0 {
		gl.DeleteVertexArrays(1, &tr.vao)
		tr.vao = 0
	}
	if tr.vbo != 0 {
		gl.DeleteBuffers(1, &tr.vbo)
		tr.vbo = 0
	}
	if tr.ebo != 0 {
		gl.DeleteBuffers(1, &tr.ebo)
		tr.ebo = 0
	}
	tr.indexCount = 0
}

// Destroy releases all resources.
func (tr *TerrainRenderer) Destroy() {
	tr.clearMesh()
	if tr.program != 0 {
		gl.DeleteProgram(tr.program)
		tr.program = 0
	}
}
