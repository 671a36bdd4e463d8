// Package gpu runs terrain kernel streams as OpenGL 4.3 compute dispatches.
// Heights live in an r32f image, normals in an rgba8 image and the smoothing
// scratch in a shader storage buffer; barriers become glMemoryBarrier calls.
//
// Every method must be called on the thread that owns the GL context.
package gpu

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/engine/gpu/shaders"
	"github.com/Faultbox/terraedit/internal/engine/shader"
	"github.com/Faultbox/terraedit/internal/kernels"
	"github.com/Faultbox/terraedit/internal/terrain"
)

var sources = map[string]string{
	"patch_update":     shaders.PatchUpdate,
	"normal_recompute": shaders.NormalRecompute,
	"smooth_gather":    shaders.SmoothGather,
	"smooth_resolve":   shaders.SmoothResolve,
}

type program struct {
	id       uint32
	uniforms *shader.Uniforms
}

type texture struct {
	id            uint32
	format        uint32
	width, height int32
}

type buffer struct {
	id   uint32
	size int // bytes
}

// Backend implements compute.Backend on the GPU.
type Backend struct {
	logger   *zap.Logger
	programs map[string]*program
	textures map[compute.Resource]*texture
	buffers  map[compute.Resource]*buffer
	stencil  buffer
	stats    compute.ExecutorStats
}

// New compiles the kernel programs. The GL context must be current.
func New(logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{
		logger:   logger,
		programs: make(map[string]*program),
		textures: make(map[compute.Resource]*texture),
		buffers:  make(map[compute.Resource]*buffer),
	}
	for name, src := range sources {
		id, err := shader.CompileCompute(src)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("compiling %s: %w", name, err)
		}
		b.programs[name] = &program{id: id, uniforms: shader.NewUniforms(id)}
	}
	logger.Info("compute backend ready", zap.Int("programs", len(b.programs)))
	return b, nil
}

// Upload copies a resource from its CPU store to the GPU, allocating the
// texture or buffer on first use.
func (b *Backend) Upload(r compute.Resource) error {
	switch r := r.(type) {
	case *terrain.Heightfield:
		t := b.ensureTexture(r, r.Width(), r.Height())
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, t.width, t.height, gl.RED, gl.FLOAT, gl.Ptr(r.Data()))
	case *terrain.NormalMap:
		t := b.ensureTexture(r, r.Width(), r.Height())
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, t.width, t.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(r.RGBA8()))
	case *kernels.SmoothScratch:
		buf := b.ensureScratch(r)
		data := make([]float32, 0, 3*len(r.Sum))
		data = append(append(append(data, r.Sum...), r.Weight...), r.Result...)
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf.id)
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, buf.size, gl.Ptr(data))
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	default:
		return fmt.Errorf("gpu: cannot upload %s", r.ResourceName())
	}
	b.logger.Debug("uploaded", zap.String("resource", r.ResourceName()))
	return nil
}

// Download copies a resident resource back into its CPU store.
func (b *Backend) Download(r compute.Resource) error {
	gl.MemoryBarrier(gl.TEXTURE_UPDATE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)

	switch r := r.(type) {
	case *terrain.Heightfield:
		t, ok := b.textures[r]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotResident, r.ResourceName())
		}
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
		gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RED, gl.FLOAT, gl.Ptr(r.Data()))
	case *terrain.NormalMap:
		t, ok := b.textures[r]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotResident, r.ResourceName())
		}
		px := make([]byte, 4*r.Width()*r.Height())
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
		gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(px))
		if err := r.SetRGBA8(px); err != nil {
			return err
		}
	case *kernels.SmoothScratch:
		buf, ok := b.buffers[r]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotResident, r.ResourceName())
		}
		n := len(r.Sum)
		data := make([]float32, 3*n)
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf.id)
		gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, buf.size, gl.Ptr(data))
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
		copy(r.Sum, data[:n])
		copy(r.Weight, data[n:2*n])
		copy(r.Result, data[2*n:])
	default:
		return fmt.Errorf("gpu: cannot download %s", r.ResourceName())
	}
	return nil
}

// Texture returns the GL texture holding a resident heightfield or normal map.
func (b *Backend) Texture(r compute.Resource) (uint32, bool) {
	t, ok := b.textures[r]
	if !ok {
		return 0, false
	}
	return t.id, true
}

// Stats returns the work submitted so far.
func (b *Backend) Stats() compute.ExecutorStats {
	return b.stats
}

// Submit validates a stream, lowers every dispatch and issues it. Nothing is
// issued when validation or lowering fails. Cancellation is checked at
// barriers.
func (b *Backend) Submit(ctx context.Context, s *compute.Stream) error {
	if err := s.Validate(); err != nil {
		b.logger.Warn("stream rejected", zap.Stringer("stream", s), zap.Error(err))
		return err
	}

	cmds := s.Commands()
	plans := make([]dispatch, len(cmds))
	for i, cmd := range cmds {
		if cmd.Kind != compute.CmdDispatch {
			continue
		}
		d, err := plan(cmd.Kernel)
		if err != nil {
			return err
		}
		for _, img := range d.images {
			if _, ok := b.textures[img.resource]; !ok {
				return fmt.Errorf("%w: %s", ErrNotResident, img.resource.ResourceName())
			}
		}
		plans[i] = d
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	for i, cmd := range cmds {
		switch cmd.Kind {
		case compute.CmdDispatch:
			b.issue(plans[i])
		case compute.CmdBarrier:
			gl.MemoryBarrier(barrierBits(cmd.Resources))
			b.stats.Segments++
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	gl.UseProgram(0)
	b.stats.Streams++

	b.logger.Debug("submitted stream", zap.Stringer("stream", s))
	return nil
}

func (b *Backend) issue(d dispatch) {
	p := b.programs[d.program]
	gl.UseProgram(p.id)

	for _, img := range d.images {
		t := b.textures[img.resource]
		gl.BindImageTexture(img.unit, t.id, 0, false, 0, imageAccess(img.access), t.format)
	}
	for _, buf := range d.buffers {
		if sc, ok := buf.resource.(*kernels.SmoothScratch); ok {
			gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, buf.index, b.ensureScratch(sc).id)
		}
	}
	if d.stencil != nil {
		b.uploadStencil(d.stencil)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bufferStencil, b.stencil.id)
	}

	for name, v := range d.ints {
		loc := p.uniforms.Loc(name)
		if len(v) == 2 {
			gl.Uniform2i(loc, v[0], v[1])
		} else {
			gl.Uniform1i(loc, v[0])
		}
	}
	for name, v := range d.floats {
		gl.Uniform1f(p.uniforms.Loc(name), v)
	}

	gl.DispatchCompute(d.groupsX, d.groupsY, 1)

	b.stats.Dispatches++
	b.stats.Groups += uint64(d.groupsX) * uint64(d.groupsY)
	b.stats.Invocations += uint64(d.groupsX) * uint64(d.groupsY) * compute.GroupSize * compute.GroupSize
}

func (b *Backend) ensureTexture(r compute.Resource, width, height int) *texture {
	if t, ok := b.textures[r]; ok && t.width == int32(width) && t.height == int32(height) {
		return t
	}
	if t, ok := b.textures[r]; ok {
		gl.DeleteTextures(1, &t.id)
	}

	format, _ := imageFormat(r)
	t := &texture{format: format, width: int32(width), height: int32(height)}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, format, t.width, t.height)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	b.textures[r] = t

	b.logger.Debug("texture allocated",
		zap.String("resource", r.ResourceName()),
		zap.Int("width", width),
		zap.Int("height", height))
	return t
}

func (b *Backend) ensureScratch(s *kernels.SmoothScratch) *buffer {
	size := 3 * len(s.Sum) * 4
	if buf, ok := b.buffers[s]; ok && buf.size == size {
		return buf
	}
	if buf, ok := b.buffers[s]; ok {
		gl.DeleteBuffers(1, &buf.id)
	}
	buf := &buffer{size: size}
	gl.GenBuffers(1, &buf.id)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf.id)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, gl.DYNAMIC_COPY)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	b.buffers[s] = buf
	return buf
}

func (b *Backend) uploadStencil(w []float32) {
	size := len(w) * 4
	if b.stencil.id == 0 {
		gl.GenBuffers(1, &b.stencil.id)
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.stencil.id)
	if size != b.stencil.size {
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, unsafe.Pointer(&w[0]), gl.DYNAMIC_DRAW)
		b.stencil.size = size
	} else {
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, size, unsafe.Pointer(&w[0]))
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
}

// Release frees the GPU copy of a resource. Releasing a resource that was
// never uploaded is a no-op.
func (b *Backend) Release(r compute.Resource) {
	if t, ok := b.textures[r]; ok {
		gl.DeleteTextures(1, &t.id)
		delete(b.textures, r)
	}
	if buf, ok := b.buffers[r]; ok {
		gl.DeleteBuffers(1, &buf.id)
		delete(b.buffers, r)
	}
}

// Close releases every program, texture and buffer.
func (b *Backend) Close() {
	for name, p := range b.programs {
		gl.DeleteProgram(p.id)
		delete(b.programs, name)
	}
	for r, t := range b.textures {
		gl.DeleteTextures(1, &t.id)
		delete(b.textures, r)
	}
	for r, buf := range b.buffers {
		gl.DeleteBuffers(1, &buf.id)
		delete(b.buffers, r)
	}
	if b.stencil.id != 0 {
		gl.DeleteBuffers(1, &b.stencil.id)
		b.stencil = buffer{}
	}
}
