// Package editor drives interactive terrain edits: it turns cursor picks
// into brush strokes and records the kernel streams that apply them.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/kernels"
	"github.com/Faultbox/terraedit/internal/projection"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

var (
	// ErrNoStroke is returned by Apply outside BeginStroke/EndStroke.
	ErrNoStroke = errors.New("editor: no active stroke")
	// ErrStrokeActive is returned by BeginStroke while a stroke is running.
	ErrStrokeActive = errors.New("editor: stroke already active")
)

// Tool selects what a stroke does.
type Tool int

const (
	Raise Tool = iota
	Lower
	Smooth
)

func (t Tool) String() string {
	switch t {
	case Raise:
		return "raise"
	case Lower:
		return "lower"
	case Smooth:
		return "smooth"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// Config holds the tunables of a session.
type Config struct {
	Brush        brush.Settings
	Terrain      terrain.Options
	UpWeight     float32
	HeightScale  float32
	Halo         int
	SmoothKernel int
	SmoothSigma  float32
	SmoothCommit bool
}

// DefaultConfig returns the tunables used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Brush:        brush.DefaultSettings(),
		Terrain:      terrain.DefaultOptions(),
		UpWeight:     kernels.DefaultUpWeight,
		HeightScale:  1,
		Halo:         kernels.DefaultHalo,
		SmoothKernel: kernels.DefaultSmoothKernel,
		SmoothSigma:  kernels.DefaultSmoothSigma,
	}
}

// Stats counts session activity.
type Stats struct {
	Strokes    uint64 // completed BeginStroke/EndStroke pairs
	Updates    uint64 // submitted stroke updates
	Dispatches uint64 // kernel dispatches submitted
	Rejected   uint64 // updates refused by the backend
}

// Session owns the heightfield and normal map while editing is active.
type Session struct {
	mu sync.Mutex

	heights *terrain.Heightfield
	normals *terrain.NormalMap
	backend compute.Backend
	logger  *zap.Logger
	cfg     Config

	tool    Tool
	active  bool
	scratch *kernels.SmoothScratch
	stats   Stats
}

// NewSession creates a session over matching height and normal grids.
func NewSession(h *terrain.Heightfield, n *terrain.NormalMap, backend compute.Backend, cfg Config, logger *zap.Logger) (*Session, error) {
	if h.Width() != n.Width() || h.Height() != n.Height() {
		return nil, fmt.Errorf("editor: heights %dx%d and normals %dx%d differ",
			h.Width(), h.Height(), n.Width(), n.Height())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Brush = cfg.Brush.Clamp()
	return &Session{
		heights: h,
		normals: n,
		backend: backend,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// Heights returns the edited heightfield.
func (s *Session) Heights() *terrain.Heightfield { return s.heights }

// Normals returns the normal map.
func (s *Session) Normals() *terrain.NormalMap { return s.normals }

// Brush returns the current brush settings.
func (s *Session) Brush() brush.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Brush
}

// SetBrush replaces the brush settings, clamped to their ranges.
func (s *Session) SetBrush(b brush.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Brush = b.Clamp()
}

// Tool returns the selected tool.
func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// Active reports whether a stroke is in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stats returns the activity counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// BeginStroke starts a paint gesture with the given tool.
func (s *Session) BeginStroke(tool Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrStrokeActive
	}
	if tool < Raise || tool > Smooth {
		return fmt.Errorf("editor: unknown tool %v", tool)
	}
	s.tool = tool
	s.active = true
	s.logger.Debug("stroke begin", zap.Stringer("tool", tool))
	return nil
}

// EndStroke finishes the current gesture. Ending without a stroke is a no-op.
func (s *Session) EndStroke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	s.stats.Strokes++
	s.logger.Debug("stroke end", zap.Stringer("tool", s.tool), zap.Uint64("strokes", s.stats.Strokes))
}

// Apply records and submits one stroke update at uv.
func (s *Session) Apply(ctx context.Context, uv math.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoStroke
	}

	stream, err := s.record(s.tool, uv)
	if err != nil {
		return err
	}
	if err := s.backend.Submit(ctx, stream); err != nil {
		s.stats.Rejected++
		return fmt.Errorf("submit %s update: %w", s.tool, err)
	}
	s.stats.Updates++
	s.stats.Dispatches += uint64(stream.Dispatches())
	return nil
}

// Record returns the stream a stroke update at uv would submit.
func (s *Session) Record(tool Tool, uv math.Vec2) (*compute.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(tool, uv)
}

func (s *Session) record(tool Tool, uv math.Vec2) (*compute.Stream, error) {
	b := s.cfg.Brush
	sign := float32(1)
	if tool == Lower {
		sign = -1
	}
	stroke := b.Stroke(uv, sign)
	if err := stroke.Validate(); err != nil {
		return nil, err
	}

	h, n := s.heights, s.normals
	stream := compute.NewStream()

	switch tool {
	case Raise, Lower:
		stream.Dispatch(kernels.NewPatchUpdate(h, stroke)).
			Barrier(h)
	case Smooth:
		p := kernels.SmoothParams{
			Center: uv,
			Size:   stroke.Size,
			Kernel: s.cfg.SmoothKernel,
			Sigma:  s.cfg.SmoothSigma,
			Commit: s.cfg.SmoothCommit,
		}
		s.scratch = s.scratch.Fit(stroke.Size)
		stream.Dispatch(kernels.NewSmoothGather(h, s.scratch, p)).
			Barrier(s.scratch, h).
			Dispatch(kernels.NewSmoothResolve(h, s.scratch, p)).
			Barrier(s.scratch, h)
	default:
		return nil, fmt.Errorf("editor: unknown tool %v", tool)
	}

	stream.Dispatch(kernels.NewNormalRecompute(h, n, kernels.NormalParams{
		Center:      uv,
		Size:        kernels.NormalSizeFor(stroke.Size, s.cfg.Halo),
		UpWeight:    s.cfg.UpWeight,
		HeightScale: s.cfg.HeightScale,
	})).Barrier(h, n)

	s.logger.Debug("stroke update",
		zap.Stringer("tool", tool),
		zap.Float32("u", uv.X),
		zap.Float32("v", uv.Y),
		zap.Int("size", stroke.Size),
		zap.Stringer("stream", stream))
	return stream, nil
}

// RecomputeNormals rebuilds the whole normal map from the heights.
func (s *Session) RecomputeNormals(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := kernels.FullNormals(s.heights, s.normals, s.cfg.UpWeight, s.cfg.HeightScale)
	stream := compute.NewStream().Dispatch(k).Barrier(s.heights, s.normals)
	if err := s.backend.Submit(ctx, stream); err != nil {
		return fmt.Errorf("recompute normals: %w", err)
	}
	s.stats.Dispatches++
	return nil
}

// BrushDiameter returns the brush diameter in world units.
func (s *Session) BrushDiameter() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float32(s.cfg.Brush.Size) * s.cfg.Terrain.TexelWorldSize(s.heights.Width())
}

// Decal returns the brush outline transform centered at a world position.
func (s *Session) Decal(world math.Vec3) math.Mat4 {
	return projection.BrushDecal(world, s.BrushDiameter())
}
