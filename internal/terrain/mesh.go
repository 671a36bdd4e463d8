package terrain

// BuildPlane creates the tessellation control mesh for the terrain: a centred
// square plane of PatchResolution² quad patches with four control points
// each. Heights are applied later by displacement, so every control point
// sits at Y=0.
func BuildPlane(opts Options) *Mesh {
	res := opts.PatchResolution
	if res < 1 {
		res = 1
	}
	size := opts.HorizontalScale
	half := size / 2
	step := size / float32(res)

	// Shared control points on a (res+1)² lattice.
	vertices := make([]Vertex, 0, (res+1)*(res+1))
	for z := 0; z <= res; z++ {
		for x := 0; x <= res; x++ {
			u := float32(x) / float32(res)
			v := float32(z) / float32(res)
			vertices = append(vertices, Vertex{
				Position: [3]float32{-half + float32(x)*step, 0, -half + float32(z)*step},
				TexCoord: [2]float32{u, v},
			})
		}
	}

	stride := uint32(res + 1)
	indices := make([]uint32, 0, res*res*4)
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			i0 := uint32(z)*stride + uint32(x)
			// Counter-clockwise seen from above: (x,z) (x+1,z) (x+1,z+1) (x,z+1)
			indices = append(indices, i0, i0+1, i0+stride+1, i0+stride)
		}
	}

	bounds := Bounds{
		Min: [3]float32{-half, 0, -half},
		Max: [3]float32{half, 0, half},
	}
	for _, v := range vertices {
		updateBounds(&bounds, v.Position)
	}

	return &Mesh{Vertices: vertices, Indices: indices, Bounds: bounds}
}

// WithHeights widens the vertical bounds to cover the displaced surface.
func (b Bounds) WithHeights(h *Heightfield, verticalScale float32) Bounds {
	lo, hi := h.Range()
	if y := lo * verticalScale; y < b.Min[1] {
		b.Min[1] = y
	}
	if y := hi * verticalScale; y > b.Max[1] {
		b.Max[1] = y
	}
	return b
}

// Center returns the centre of the bounding box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := range 3 {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
