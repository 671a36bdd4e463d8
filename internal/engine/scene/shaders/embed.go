// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// TerrainVertexShader passes control points through to tessellation.
//
//go:embed terrain.vert
var TerrainVertexShader string

// TerrainControlShader sets the tessellation level per patch.
//
//go:embed terrain.tesc
var TerrainControlShader string

// TerrainEvalShader displaces tessellated vertices by the height texture.
//
//go:embed terrain.tese
var TerrainEvalShader string

// TerrainFragmentShader lights terrain from the normal texture.
//
//go:embed terrain.frag
var TerrainFragmentShader string

// DecalVertexShader draws the brush decal volume.
//
//go:embed decal.vert
var DecalVertexShader string

// DecalFragmentShader projects the brush ring onto the depth buffer surface.
//
//go:embed decal.frag
var DecalFragmentShader string
