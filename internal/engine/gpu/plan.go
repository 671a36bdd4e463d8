package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/kernels"
	"github.com/Faultbox/terraedit/internal/terrain"
)

var (
	// ErrUnsupportedKernel is returned for kernels with no compute shader.
	ErrUnsupportedKernel = errors.New("gpu: unsupported kernel")
	// ErrNotResident is returned when a dispatch binds a texture that was never uploaded.
	ErrNotResident = errors.New("gpu: resource not resident")
)

// Binding points shared with the shaders.
const (
	unitHeights   = 0
	unitNormals   = 1
	bufferScratch = 1
	bufferStencil = 2
)

type imageBinding struct {
	unit     uint32
	resource compute.Resource
	access   compute.Access
}

type bufferBinding struct {
	index    uint32
	resource compute.Resource
}

// dispatch is one kernel lowered to program, bindings and uniforms.
type dispatch struct {
	program string
	groupsX uint32
	groupsY uint32
	images  []imageBinding
	buffers []bufferBinding
	ints    map[string][]int32 // one value or an ivec2
	floats  map[string]float32
	stencil []float32 // uploaded to bufferStencil when set
}

// plan lowers a kernel to the shader that implements it.
func plan(k compute.Kernel) (dispatch, error) {
	gx, gy := k.Groups()
	d := dispatch{
		program: k.Name(),
		groupsX: uint32(max(gx, 0)),
		groupsY: uint32(max(gy, 0)),
		ints:    make(map[string][]int32),
		floats:  make(map[string]float32),
	}

	switch k := k.(type) {
	case *kernels.PatchUpdate:
		p, s := k.Patch(), k.Stroke
		d.images = []imageBinding{{unitHeights, k.Heights, compute.ReadWrite}}
		d.ints["uCenter"] = []int32{int32(p.CenterX), int32(p.CenterY)}
		d.ints["uHalf"] = []int32{int32(p.Half)}
		d.ints["uFalloff"] = []int32{int32(s.Falloff)}
		d.floats["uMaxDist"] = s.Distance.MaxDistance(s.Size)
		d.floats["uStrength"] = s.Strength
		d.floats["uParam"] = s.Param

	case *kernels.NormalRecompute:
		p := k.Patch()
		d.images = []imageBinding{
			{unitHeights, k.Heights, compute.Read},
			{unitNormals, k.Normals, compute.Write},
		}
		d.ints["uCenter"] = []int32{int32(p.CenterX), int32(p.CenterY)}
		d.ints["uHalf"] = []int32{int32(p.Half)}
		d.floats["uUpWeight"] = k.Params.UpWeight
		d.floats["uHeightScale"] = k.Params.HeightScale

	case *kernels.SmoothGather:
		p, w := k.Patch(), k.Weights()
		d.images = []imageBinding{{unitHeights, k.Heights, compute.Read}}
		d.buffers = []bufferBinding{{bufferScratch, k.Scratch}}
		d.stencil = w
		d.ints["uCenter"] = []int32{int32(p.CenterX), int32(p.CenterY)}
		d.ints["uHalf"] = []int32{int32(p.Half)}
		d.ints["uSide"] = []int32{int32(k.Scratch.Side())}
		d.ints["uRadius"] = []int32{int32(stencilWidth(len(w)) / 2)}

	case *kernels.SmoothResolve:
		p := k.Patch()
		d.images = []imageBinding{{unitHeights, k.Heights, compute.Write}}
		d.buffers = []bufferBinding{{bufferScratch, k.Scratch}}
		d.ints["uCenter"] = []int32{int32(p.CenterX), int32(p.CenterY)}
		d.ints["uHalf"] = []int32{int32(p.Half)}
		d.ints["uSide"] = []int32{int32(k.Scratch.Side())}
		commit := int32(0)
		if k.Params.Commit {
			commit = 1
		}
		d.ints["uCommit"] = []int32{commit}

	default:
		return dispatch{}, fmt.Errorf("%w: %s", ErrUnsupportedKernel, k.Name())
	}
	return d, nil
}

// stencilWidth returns n for an n×n stencil of the given length.
func stencilWidth(length int) int {
	n := 0
	for n*n < length {
		n++
	}
	return n
}

// barrierBits maps a barrier's resources to glMemoryBarrier bits. Images
// are also sampled by the renderer, so their barriers cover texture fetches.
func barrierBits(resources []compute.Resource) uint32 {
	if len(resources) == 0 {
		return gl.ALL_BARRIER_BITS
	}
	var bits uint32
	for _, r := range resources {
		switch r.(type) {
		case *terrain.Heightfield, *terrain.NormalMap:
			bits |= gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT | gl.TEXTURE_UPDATE_BARRIER_BIT
		case *kernels.SmoothScratch:
			bits |= gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT
		default:
			return gl.ALL_BARRIER_BITS
		}
	}
	return bits
}

// imageAccess maps a binding access to the image unit access mode.
func imageAccess(a compute.Access) uint32 {
	switch a {
	case compute.Read:
		return gl.READ_ONLY
	case compute.Write:
		return gl.WRITE_ONLY
	}
	return gl.READ_WRITE
}

// imageFormat returns the sized internal format of a texture resource.
func imageFormat(r compute.Resource) (uint32, bool) {
	switch r.(type) {
	case *terrain.Heightfield:
		return gl.R32F, true
	case *terrain.NormalMap:
		return gl.RGBA8, true
	}
	return 0, false
}
