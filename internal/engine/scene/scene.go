// Package scene renders the edited terrain and the brush decal.
package scene

import (
	"fmt"

	"github.com/Faultbox/terraedit/internal/engine/framebuffer"
	"github.com/Faultbox/terraedit/internal/engine/lighting"
	"github.com/Faultbox/terraedit/internal/projection"
	"github.com/Faultbox/terraedit/internal/terrain"
)

// Config contains scene configuration options.
type Config struct {
	Width             int32
	Height            int32
	VerticalScale     float32
	TessellationLevel float32
	Wireframe         bool
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Width:             1280,
		Height:            720,
		VerticalScale:     1,
		TessellationLevel: 16,
	}
}

// Frame is everything one Render call draws.
type Frame struct {
	Projection projection.Frame
	Heights    uint32
	Normals    uint32
	ShowDecal  bool
	// Window size in pixels; the offscreen pass is blitted to it.
	WindowWidth  int32
	WindowHeight int32
}

// Scene draws the terrain offscreen, blits it to the window and overlays
// the brush decal using the offscreen depth.
type Scene struct {
	config Config

	framebuffer *framebuffer.Framebuffer
	terrain     *TerrainRenderer
	decal       *DecalRenderer

	Sun        lighting.Sun
	Background [4]float32
}

// New creates a new scene for a terrain control mesh.
func New(cfg Config, mesh *terrain.Mesh) (*Scene, error) {
	s := &Scene{
		config:     cfg,
		Sun:        lighting.DefaultSun(),
		Background: [4]float32{0.15, 0.15, 0.2, 1.0},
	}

	var err error
	s.framebuffer, err = framebuffer.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	s.terrain, err = NewTerrainRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating terrain renderer: %w", err)
	}
	s.terrain.LoadMesh(mesh)

	s.decal, err = NewDecalRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating decal renderer: %w", err)
	}

	return s, nil
}

// Config returns the current configuration.
func (s *Scene) Config() Config {
	return s.config
}

// SetWireframe toggles wireframe terrain.
func (s *Scene) SetWireframe(on bool) {
	s.config.Wireframe = on
}

// SetTessellationLevel changes the tessellation level, clamped to the
// supported range.
func (s *Scene) SetTessellationLevel(level float32) {
	s.config.TessellationLevel = ClampTessLevel(level)
}

// SetBrushColor sets the decal ring color.
func (s *Scene) SetBrushColor(color [4]float32) {
	s.decal.Color = color
}

// Render draws one frame to the default framebuffer.
func (s *Scene) Render(f Frame) {
	s.framebuffer.Bind()
	s.framebuffer.Clear(s.Background[0], s.Background[1], s.Background[2], s.Background[3])

	s.terrain.Render(TerrainPass{
		ViewProj:      f.Projection.ProjectionView,
		Heights:       f.Heights,
		Normals:       f.Normals,
		VerticalScale: s.config.VerticalScale,
		TessLevel:     s.config.TessellationLevel,
		Sun:           s.Sun,
		Wireframe:     s.config.Wireframe,
	})

	s.framebuffer.BlitToScreen(f.WindowWidth, f.WindowHeight)

	if f.ShowDecal {
		s.decal.Render(f.Projection, s.framebuffer.DepthTexture(), f.WindowWidth, f.WindowHeight)
	}
}

// Depth returns the offscreen target for depth picking. Its pixel space is
// the scene size passed to New or Resize.
func (s *Scene) Depth() *framebuffer.Framebuffer {
	return s.framebuffer
}

// Resize updates the offscreen target dimensions.
func (s *Scene) Resize(width, height int32) {
	if width == s.config.Width && height == s.config.Height {
		return
	}
	s.config.Width = width
	s.config.Height = height
	s.framebuffer.Resize(width, height)
}

// CaptureImage captures the last rendered scene as RGBA pixel data, top
// row first.
func (s *Scene) CaptureImage() ([]byte, int32, int32) {
	width, height := s.framebuffer.Size()
	return FlipRows(s.framebuffer.ReadPixels(), int(width), int(height)), width, height
}

// FlipRows reverses the row order of a tightly packed RGBA image.
func FlipRows(pixels []byte, width, height int) []byte {
	rowSize := width * 4
	flipped := make([]byte, len(pixels))
	for y := 0; y < height; y++ {
		srcRow := (height - 1 - y) * rowSize
		dstRow := y * rowSize
		copy(flipped[dstRow:dstRow+rowSize], pixels[srcRow:srcRow+rowSize])
	}
	return flipped
}

// Destroy releases all resources.
func (s *Scene) Destroy() {
	if s.terrain != nil {
		s.terrain.Destroy()
	}
	if s.decal != nil {
		s.decal.Destroy()
	}
	if s.framebuffer != nil {
		s.framebuffer.Destroy()
	}
}
