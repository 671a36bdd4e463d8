package editor

import (
	"context"
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/projection"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

func newSession(t *testing.T, size int, cfg Config) *Session {
	t.Helper()
	h, err := terrain.NewHeightfield(size, size)
	if err != nil {
		t.Fatalf("NewHeightfield failed: %v", err)
	}
	n, err := terrain.NewNormalMap(size, size)
	if err != nil {
		t.Fatalf("NewNormalMap failed: %v", err)
	}
	e := compute.NewExecutor(compute.WithWorkers(4), compute.WithShuffle(11))
	t.Cleanup(e.Close)

	s, err := NewSession(h, n, e, cfg, nil)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func smallBrush() Config {
	cfg := DefaultConfig()
	cfg.Brush = brush.Settings{Size: 8, Strength: 1, Falloff: brush.Gaussian, Sigma: 0.3}
	return cfg
}

type failingBackend struct{ err error }

func (b failingBackend) Submit(context.Context, *compute.Stream) error { return b.err }

type fixedDepth struct {
	depth float32
	ok    bool
	x, y  int
}

func (d *fixedDepth) SampleDepth(x, y int) (float32, bool) {
	d.x, d.y = x, y
	return d.depth, d.ok
}

func TestNewSession_SizeMismatch(t *testing.T) {
	h, _ := terrain.NewHeightfield(8, 8)
	n, _ := terrain.NewNormalMap(8, 4)
	if _, err := NewSession(h, n, failingBackend{}, DefaultConfig(), nil); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestSession_StrokeLifecycle(t *testing.T) {
	s := newSession(t, 32, smallBrush())
	ctx := context.Background()
	uv := math.Vec2{X: 0.5, Y: 0.5}

	if err := s.Apply(ctx, uv); !errors.Is(err, ErrNoStroke) {
		t.Fatalf("Apply without stroke: got %v, want ErrNoStroke", err)
	}
	if err := s.BeginStroke(Raise); err != nil {
		t.Fatalf("BeginStroke failed: %v", err)
	}
	if err := s.BeginStroke(Lower); !errors.Is(err, ErrStrokeActive) {
		t.Fatalf("second BeginStroke: got %v, want ErrStrokeActive", err)
	}
	if !s.Active() || s.Tool() != Raise {
		t.Fatalf("Active = %v, Tool = %v", s.Active(), s.Tool())
	}
	if err := s.Apply(ctx, uv); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	s.EndStroke()
	s.EndStroke()

	st := s.Stats()
	if st.Strokes != 1 || st.Updates != 1 || st.Dispatches != 2 {
		t.Errorf("stats = %+v", st)
	}
	if s.Active() {
		t.Error("stroke still active after EndStroke")
	}
	if err := s.BeginStroke(Tool(9)); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestSession_RaiseThenLower(t *testing.T) {
	s := newSession(t, 64, smallBrush())
	ctx := context.Background()
	uv := math.Vec2{X: 0.3, Y: 0.6}

	s.BeginStroke(Raise)
	if err := s.Apply(ctx, uv); err != nil {
		t.Fatalf("raise failed: %v", err)
	}
	s.EndStroke()

	cx, cy := s.Heights().TexelAt(uv)
	peak, _ := s.Heights().At(cx, cy)
	if want := brush.Weight(brush.Gaussian, 0.3, 0); peak != want {
		t.Errorf("peak = %v, want %v", peak, want)
	}
	tilted, _ := s.Normals().Normal(cx+2, cy)
	if !(tilted.X > 0) {
		t.Errorf("normal east of the peak = %v, want +X tilt", tilted)
	}

	s.BeginStroke(Lower)
	if err := s.Apply(ctx, uv); err != nil {
		t.Fatalf("lower failed: %v", err)
	}
	s.EndStroke()

	for i, v := range s.Heights().Data() {
		if v != 0 {
			t.Fatalf("texel %d = %v after raise+lower", i, v)
		}
	}
	for y := range 64 {
		for x := range 64 {
			n, _ := s.Normals().Normal(x, y)
			if n.Distance(math.Vec3{Y: 1}) > 1e-6 {
				t.Fatalf("normal (%d,%d) = %v, want up", x, y, n)
			}
		}
	}
}

func TestSession_RecordedStreamsAreOrdered(t *testing.T) {
	s := newSession(t, 32, smallBrush())
	uv := math.Vec2{X: 0.5, Y: 0.5}

	for _, tool := range []Tool{Raise, Lower, Smooth} {
		t.Run(tool.String(), func(t *testing.T) {
			stream, err := s.Record(tool, uv)
			if err != nil {
				t.Fatalf("Record failed: %v", err)
			}
			if err := stream.Validate(); err != nil {
				t.Fatalf("stream has a hazard: %v", err)
			}
			if !stream.Settled(s.Heights()) || !stream.Settled(s.Normals()) {
				t.Errorf("stream %s leaves unfenced writes before render read", stream)
			}
		})
	}

	stream, _ := s.Record(Raise, uv)
	if got := stream.String(); got != "patch_update |heights| normal_recompute |heights,normals|" {
		t.Errorf("raise stream = %q", got)
	}
}

func TestSession_InvalidStroke(t *testing.T) {
	s := newSession(t, 16, smallBrush())
	s.BeginStroke(Raise)
	nan := float32(gomath.NaN())
	if err := s.Apply(context.Background(), math.Vec2{X: nan, Y: 0.5}); !errors.Is(err, brush.ErrInvalidStroke) {
		t.Errorf("got %v, want ErrInvalidStroke", err)
	}
}

func TestSession_Smooth(t *testing.T) {
	ctx := context.Background()
	uv := math.Vec2{X: 0.5, Y: 0.5}

	for _, commit := range []bool{false, true} {
		cfg := smallBrush()
		cfg.SmoothKernel = 5
		cfg.SmoothSigma = 1
		cfg.SmoothCommit = commit
		s := newSession(t, 32, cfg)
		s.Heights().Set(16, 16, 10)

		s.BeginStroke(Smooth)
		if err := s.Apply(ctx, uv); err != nil {
			t.Fatalf("smooth failed: %v", err)
		}
		s.EndStroke()

		v, _ := s.Heights().At(16, 16)
		if !commit && v != 10 {
			t.Errorf("uncommitted smoothing changed the spike to %v", v)
		}
		if commit && !(v < 10 && v > 0) {
			t.Errorf("committed smoothing left the spike at %v", v)
		}
		if st := s.Stats(); st.Dispatches != 3 {
			t.Errorf("dispatches = %d, want 3", st.Dispatches)
		}
	}
}

func TestSession_BackendError(t *testing.T) {
	h, _ := terrain.NewHeightfield(8, 8)
	n, _ := terrain.NewNormalMap(8, 8)
	boom := errors.New("device lost")
	s, _ := NewSession(h, n, failingBackend{err: boom}, smallBrush(), nil)

	s.BeginStroke(Raise)
	if err := s.Apply(context.Background(), math.Vec2{X: 0.5, Y: 0.5}); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped backend error", err)
	}
	if st := s.Stats(); st.Rejected != 1 || st.Updates != 0 {
		t.Errorf("stats = %+v", st)
	}
	if err := s.RecomputeNormals(context.Background()); !errors.Is(err, boom) {
		t.Errorf("RecomputeNormals: got %v", err)
	}
}

func TestSession_RecomputeNormals(t *testing.T) {
	s := newSession(t, 16, smallBrush())
	for x := range 16 {
		for y := range 16 {
			s.Heights().Set(x, y, float32(x)*0.1)
		}
	}
	if err := s.RecomputeNormals(context.Background()); err != nil {
		t.Fatalf("RecomputeNormals failed: %v", err)
	}
	for y := range 16 {
		for x := 1; x < 15; x++ {
			n, _ := s.Normals().Normal(x, y)
			if !(n.X < 0) || gomath.Abs(float64(n.Z)) > 1e-6 {
				t.Fatalf("normal (%d,%d) = %v, want -X tilt", x, y, n)
			}
		}
	}
}

func TestSession_Brush(t *testing.T) {
	s := newSession(t, 256, DefaultConfig())
	s.SetBrush(brush.Settings{Size: 1000, Strength: 2, Falloff: brush.SineEase, Sigma: 0.2})
	if got := s.Brush().Size; got != brush.MaxSize {
		t.Errorf("size = %d, want clamped %d", got, brush.MaxSize)
	}

	s.SetBrush(brush.DefaultSettings())
	// 32 texels of 512/256 world units each.
	if got := s.BrushDiameter(); got != 64 {
		t.Errorf("BrushDiameter = %v, want 64", got)
	}
	m := s.Decal(math.Vec3{X: 10, Z: 20})
	edge := m.TransformPoint(math.Vec3{X: 0.5})
	if edge.Distance(math.Vec3{X: 42, Z: 20}) > 1e-4 {
		t.Errorf("decal edge = %v", edge)
	}
}

func pickFrame() projection.Frame {
	proj := math.Perspective(gomath.Pi/3, 4.0/3.0, 1, 1000)
	view := math.LookAt(math.Vec3{X: 0, Y: 200, Z: 250}, math.Vec3{}, math.Vec3{Y: 1})
	return projection.NewFrame(proj, view)
}

func TestSession_PickWithDepth(t *testing.T) {
	s := newSession(t, 256, DefaultConfig())
	frame := pickFrame()
	target := math.Vec3{X: -64, Y: 0, Z: 128}

	ndc, depth, ok := frame.Project(target)
	if !ok {
		t.Fatal("target does not project")
	}
	px, py := projection.NDCToPixel(ndc, 800, 600)

	sampler := &fixedDepth{depth: depth, ok: true}
	hit, ok := s.Pick(frame, px, py, 800, 600, sampler)
	if !ok {
		t.Fatal("Pick missed the terrain")
	}
	if sampler.x != int(px) || sampler.y != int(py) {
		t.Errorf("sampled (%d,%d), want (%d,%d)", sampler.x, sampler.y, int(px), int(py))
	}
	if hit.World.Distance(target) > 0.5 {
		t.Errorf("world = %v, want %v", hit.World, target)
	}
	if hit.UV.Distance(math.Vec2{X: 0.375, Y: 0.75}) > 1e-3 {
		t.Errorf("uv = %v, want (0.375,0.75)", hit.UV)
	}
}

func TestSession_PickMisses(t *testing.T) {
	s := newSession(t, 64, DefaultConfig())
	frame := pickFrame()

	tests := []struct {
		name    string
		sampler DepthSampler
	}{
		{"cleared depth", &fixedDepth{depth: 1, ok: true}},
		{"nan depth", &fixedDepth{depth: float32(gomath.NaN()), ok: true}},
		{"no sample", &fixedDepth{ok: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := s.Pick(frame, 400, 300, 800, 600, tt.sampler); ok {
				t.Error("expected no hit")
			}
		})
	}
	if _, ok := s.Pick(frame, 1, 1, 0, 600, nil); ok {
		t.Error("expected no hit for empty viewport")
	}

	// A camera looking above the horizon never reaches the plane.
	sky := projection.NewFrame(
		math.Perspective(gomath.Pi/3, 4.0/3.0, 1, 1000),
		math.LookAt(math.Vec3{Y: 10}, math.Vec3{Y: 60, Z: -100}, math.Vec3{Y: 1}),
	)
	if _, ok := s.Pick(sky, 400, 300, 800, 600, nil); ok {
		t.Error("expected ray above the horizon to miss")
	}
}

func TestSession_PickPlaneFallback(t *testing.T) {
	s := newSession(t, 64, DefaultConfig())
	frame := pickFrame()
	ndc, _, _ := frame.Project(math.Vec3{})
	px, py := projection.NDCToPixel(ndc, 800, 600)

	hit, ok := s.Pick(frame, px, py, 800, 600, nil)
	if !ok {
		t.Fatal("Pick missed the plane")
	}
	if hit.UV.Distance(math.Vec2{X: 0.5, Y: 0.5}) > 1e-3 {
		t.Errorf("uv = %v, want (0.5,0.5)", hit.UV)
	}
}

func TestSession_PickOffTerrain(t *testing.T) {
	s := newSession(t, 64, DefaultConfig())
	// Looking along the ground past the far edge of the 512 unit plane.
	frame := projection.NewFrame(
		math.Perspective(gomath.Pi/3, 4.0/3.0, 1, 5000),
		math.LookAt(math.Vec3{Y: 200, Z: 250}, math.Vec3{Z: -1500}, math.Vec3{Y: 1}),
	)

	if hit, ok := s.Pick(frame, 400, 300, 800, 600, nil); ok {
		t.Errorf("plane fallback hit %v (uv %v) beyond the terrain", hit.World, hit.UV)
	}

	beyond := math.Vec3{Z: -600}
	ndc, depth, ok := frame.Project(beyond)
	if !ok {
		t.Fatal("point beyond the edge does not project")
	}
	px, py := projection.NDCToPixel(ndc, 800, 600)
	if hit, ok := s.Pick(frame, px, py, 800, 600, &fixedDepth{depth: depth, ok: true}); ok {
		t.Errorf("depth pick hit %v (uv %v) beyond the terrain", hit.World, hit.UV)
	}

	// Points on the plane seen through the same frame still hit.
	near := math.Vec3{Z: -100}
	ndc, _, _ = frame.Project(near)
	px, py = projection.NDCToPixel(ndc, 800, 600)
	hit, ok := s.Pick(frame, px, py, 800, 600, nil)
	if !ok {
		t.Fatal("Pick missed the plane inside the footprint")
	}
	if hit.World.Distance(near) > 1 {
		t.Errorf("world = %v, want %v", hit.World, near)
	}
}
