// Package shaders provides the embedded GLSL compute kernels.
package shaders

import _ "embed"

// PatchUpdate adds a weighted brush stroke to the height image.
//
//go:embed patch_update.comp
var PatchUpdate string

// NormalRecompute rebuilds packed normals with a 3x3 Sobel filter.
//
//go:embed normal_recompute.comp
var NormalRecompute string

// SmoothGather accumulates weighted neighbourhoods into the scratch buffer.
//
//go:embed smooth_gather.comp
var SmoothGather string

// SmoothResolve averages the scratch slots and optionally commits them.
//
//go:embed smooth_resolve.comp
var SmoothResolve string
