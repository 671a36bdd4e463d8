// Package kernels contains the terrain editing compute kernels: the additive
// brush patch update, the Sobel normal recompute and the two-phase smoothing
// pair. Each kernel owns its parameter block and implements compute.Kernel.
package kernels

import (
	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/terrain"
)

// PatchUpdate adds a brush stroke's weighted strength to every height texel
// inside the stroke's patch.
type PatchUpdate struct {
	Heights *terrain.Heightfield
	Stroke  brush.Stroke

	patch brush.Patch
}

// NewPatchUpdate binds a stroke to a heightfield.
func NewPatchUpdate(h *terrain.Heightfield, s brush.Stroke) *PatchUpdate {
	cx, cy := h.TexelAt(s.Center)
	return &PatchUpdate{
		Heights: h,
		Stroke:  s,
		patch:   brush.PatchAt(cx, cy, s.Size),
	}
}

// Name implements compute.Kernel.
func (k *PatchUpdate) Name() string { return "patch_update" }

// Bindings implements compute.Kernel.
func (k *PatchUpdate) Bindings() []compute.Binding {
	return []compute.Binding{{Resource: k.Heights, Access: compute.ReadWrite}}
}

// Groups implements compute.Kernel.
func (k *PatchUpdate) Groups() (int, int) {
	g := compute.Groups(k.Stroke.Size)
	return g, g
}

// Patch returns the texel rectangle the dispatch may touch.
func (k *PatchUpdate) Patch() brush.Patch { return k.patch }

// Invoke implements compute.Kernel.
func (k *PatchUpdate) Invoke(inv compute.Invocation) {
	dx, dy, x, y, ok := locate(inv, k.patch)
	if !ok || !k.Heights.InBounds(x, y) {
		return
	}
	old, _ := k.Heights.At(x, y)
	k.Heights.Set(x, y, old+k.Stroke.Delta(dx, dy))
}

// locate maps an invocation to its offset from the patch center and its
// texel. ok is false for over-dispatch invocations outside the rectangle.
func locate(inv compute.Invocation, p brush.Patch) (dx, dy, x, y int, ok bool) {
	dx = inv.Global.X - p.Half
	dy = inv.Global.Y - p.Half
	if !p.Contains(dx, dy) {
		return 0, 0, 0, 0, false
	}
	return dx, dy, p.CenterX + dx, p.CenterY + dy, true
}
