package kernels

import (
	gomath "math"

	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

const (
	// DefaultSmoothKernel is the width of the smoothing stencil.
	DefaultSmoothKernel = 35
	// DefaultSmoothSigma is the smoothing Gaussian sigma in texels.
	DefaultSmoothSigma = 6
)

// GaussianKernel returns n×n Gaussian weights, row-major, summing to 1.
// n is forced odd so the stencil has a center tap.
func GaussianKernel(n int, sigma float32) []float32 {
	if n < 1 {
		n = 1
	}
	if n%2 == 0 {
		n++
	}
	r := n / 2
	w := make([]float32, n*n)

	if sigma <= 0 {
		w[r*n+r] = 1
		return w
	}

	s2 := 2 * float64(sigma) * float64(sigma)
	var sum float64
	for j := -r; j <= r; j++ {
		for i := -r; i <= r; i++ {
			v := gomath.Exp(-float64(i*i+j*j) / s2)
			w[(j+r)*n+(i+r)] = float32(v)
			sum += v
		}
	}
	for i := range w {
		w[i] = float32(float64(w[i]) / sum)
	}
	return w
}

// SmoothParams is the smoothing parameter block shared by both phases.
type SmoothParams struct {
	Center math.Vec2 // UV of the patch center
	Size   int       // patch diameter in texels
	Kernel int       // stencil width, odd
	Sigma  float32   // stencil sigma in texels
	Commit bool      // write the average back to the heightfield
}

// DefaultSmoothParams returns smoothing parameters for a patch at uv.
func DefaultSmoothParams(uv math.Vec2, size int) SmoothParams {
	return SmoothParams{
		Center: uv,
		Size:   size,
		Kernel: DefaultSmoothKernel,
		Sigma:  DefaultSmoothSigma,
	}
}

// SmoothScratch holds one slot per smoothing invocation. It carries the
// gathered sums from the gather phase to the resolve phase across a barrier.
type SmoothScratch struct {
	side   int
	Sum    []float32 // Σ w·h
	Weight []float32 // Σ w; zero marks an idle slot
	Result []float32 // resolved averages
}

// NewSmoothScratch allocates slots for patches up to the given diameter.
func NewSmoothScratch(size int) *SmoothScratch {
	side := size + 1
	return &SmoothScratch{
		side:   side,
		Sum:    make([]float32, side*side),
		Weight: make([]float32, side*side),
		Result: make([]float32, side*side),
	}
}

// Fit returns s if it matches a patch of the given diameter, or a new
// scratch that does. Slot indices follow invocation ids, so a scratch must
// be sized for exactly the patch it serves.
func (s *SmoothScratch) Fit(size int) *SmoothScratch {
	if s != nil && s.side == size+1 {
		return s
	}
	return NewSmoothScratch(size)
}

// ResourceName identifies the scratch buffer in command streams.
func (s *SmoothScratch) ResourceName() string { return "smooth_scratch" }

// Side returns the slot grid edge length.
func (s *SmoothScratch) Side() int { return s.side }

// slot returns the slot index for an invocation, or -1 if it has none.
func (s *SmoothScratch) slot(inv compute.Invocation) int {
	x, y := inv.Global.X, inv.Global.Y
	if x >= s.side || y >= s.side {
		return -1
	}
	return y*s.side + x
}

// ResultAt returns the resolved average for the texel at offset (dx, dy)
// from the patch center.
func (s *SmoothScratch) ResultAt(dx, dy int) (float32, bool) {
	half := (s.side - 1) / 2
	x, y := dx+half, dy+half
	if x < 0 || y < 0 || x >= s.side || y >= s.side {
		return 0, false
	}
	i := y*s.side + x
	if s.Weight[i] == 0 {
		return 0, false
	}
	return s.Result[i], true
}

// SmoothGather is the read-only first phase: every invocation accumulates
// its Gaussian-weighted neighbourhood into its own scratch slot.
type SmoothGather struct {
	Heights *terrain.Heightfield
	Scratch *SmoothScratch
	Params  SmoothParams

	patch   brush.Patch
	weights []float32
	radius  int
}

// NewSmoothGather binds the gather phase. The scratch must fit Params.Size.
func NewSmoothGather(h *terrain.Heightfield, s *SmoothScratch, p SmoothParams) *SmoothGather {
	cx, cy := h.TexelAt(p.Center)
	w := GaussianKernel(p.Kernel, p.Sigma)
	n := int(gomath.Sqrt(float64(len(w))))
	return &SmoothGather{
		Heights: h,
		Scratch: s,
		Params:  p,
		patch:   brush.PatchAt(cx, cy, p.Size),
		weights: w,
		radius:  n / 2,
	}
}

// Name implements compute.Kernel.
func (k *SmoothGather) Name() string { return "smooth_gather" }

// Bindings implements compute.Kernel.
func (k *SmoothGather) Bindings() []compute.Binding {
	return []compute.Binding{
		{Resource: k.Heights, Access: compute.Read},
		{Resource: k.Scratch, Access: compute.Write},
	}
}

// Groups implements compute.Kernel.
func (k *SmoothGather) Groups() (int, int) {
	g := compute.Groups(k.Params.Size)
	return g, g
}

// Patch returns the texel rectangle the dispatch may touch.
func (k *SmoothGather) Patch() brush.Patch { return k.patch }

// Weights returns the row-major stencil weights.
func (k *SmoothGather) Weights() []float32 { return k.weights }

// Invoke implements compute.Kernel.
func (k *SmoothGather) Invoke(inv compute.Invocation) {
	slot := k.Scratch.slot(inv)
	if slot < 0 {
		return
	}
	// Idle until proven otherwise, so stale sums never reach resolve.
	k.Scratch.Sum[slot], k.Scratch.Weight[slot] = 0, 0

	_, _, x, y, ok := locate(inv, k.patch)
	if !ok || !k.Heights.InBounds(x, y) {
		return
	}

	n := 2*k.radius + 1
	var sum, wsum float32
	for j := -k.radius; j <= k.radius; j++ {
		row := (j + k.radius) * n
		for i := -k.radius; i <= k.radius; i++ {
			w := k.weights[row+i+k.radius]
			sum += w * k.Heights.Clamped(x+i, y+j)
			wsum += w
		}
	}
	k.Scratch.Sum[slot] = sum
	k.Scratch.Weight[slot] = wsum
}

// SmoothResolve is the second phase: every invocation turns its slot into an
// average and, when committing, writes its own height texel.
type SmoothResolve struct {
	Heights *terrain.Heightfield
	Scratch *SmoothScratch
	Params  SmoothParams

	patch brush.Patch
}

// NewSmoothResolve binds the resolve phase.
func NewSmoothResolve(h *terrain.Heightfield, s *SmoothScratch, p SmoothParams) *SmoothResolve {
	cx, cy := h.TexelAt(p.Center)
	return &SmoothResolve{
		Heights: h,
		Scratch: s,
		Params:  p,
		patch:   brush.PatchAt(cx, cy, p.Size),
	}
}

// Name implements compute.Kernel.
func (k *SmoothResolve) Name() string { return "smooth_resolve" }

// Bindings implements compute.Kernel.
func (k *SmoothResolve) Bindings() []compute.Binding {
	b := []compute.Binding{{Resource: k.Scratch, Access: compute.ReadWrite}}
	if k.Params.Commit {
		b = append(b, compute.Binding{Resource: k.Heights, Access: compute.Write})
	}
	return b
}

// Groups implements compute.Kernel.
func (k *SmoothResolve) Groups() (int, int) {
	g := compute.Groups(k.Params.Size)
	return g, g
}

// Patch returns the texel rectangle the dispatch may touch.
func (k *SmoothResolve) Patch() brush.Patch { return k.patch }

// Invoke implements compute.Kernel.
func (k *SmoothResolve) Invoke(inv compute.Invocation) {
	slot := k.Scratch.slot(inv)
	if slot < 0 || k.Scratch.Weight[slot] == 0 {
		return
	}
	avg := k.Scratch.Sum[slot] / k.Scratch.Weight[slot]
	k.Scratch.Result[slot] = avg

	if !k.Params.Commit {
		return
	}
	_, _, x, y, ok := locate(inv, k.patch)
	if ok {
		k.Heights.Set(x, y, avg)
	}
}
