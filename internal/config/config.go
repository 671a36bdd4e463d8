// Package config handles editor configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/editor"
	"github.com/Faultbox/terraedit/internal/logger"
	"github.com/Faultbox/terraedit/internal/terrain"
)

// Config holds all editor settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Brush     brush.Settings  `yaml:"brush"`
	Normals   NormalsConfig   `yaml:"normals"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Compute   ComputeConfig   `yaml:"compute"`
	Logging   LoggingConfig   `yaml:"logging"`

	path string // file the config was loaded from or last saved to
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FPSLimit   int     `yaml:"fps_limit"`
	FOV        float32 `yaml:"fov"` // vertical field of view in degrees
}

// TerrainConfig holds the heightfield layout.
type TerrainConfig struct {
	Resolution        int     `yaml:"resolution"` // texels per side
	HorizontalScale   float32 `yaml:"horizontal_scale"`
	VerticalScale     float32 `yaml:"vertical_scale"`
	PatchResolution   int     `yaml:"patch_resolution"`
	TessellationLevel int     `yaml:"tessellation_level"`
	Wireframe         bool    `yaml:"wireframe"`
	Snapshot          string  `yaml:"snapshot"` // heightfield loaded on start and written by save
}

// NormalsConfig holds the normal filter tunables.
type NormalsConfig struct {
	UpWeight    float32 `yaml:"up_weight"`
	HeightScale float32 `yaml:"height_scale"`
	Halo        int     `yaml:"halo"`
}

// SmoothingConfig holds the smoothing brush tunables.
type SmoothingConfig struct {
	Kernel int     `yaml:"kernel"`
	Sigma  float32 `yaml:"sigma"`
	Commit bool    `yaml:"commit"`
}

// ComputeConfig selects where kernels run.
type ComputeConfig struct {
	Backend string `yaml:"backend"` // "gl" or "cpu"
	Workers int    `yaml:"workers"` // cpu backend only; 0 uses GOMAXPROCS
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Compute backends.
const (
	BackendGL  = "gl"
	BackendCPU = "cpu"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := terrain.DefaultOptions()
	ed := editor.DefaultConfig()
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			FOV:        60,
		},
		Terrain: TerrainConfig{
			Resolution:        1024,
			HorizontalScale:   opts.HorizontalScale,
			VerticalScale:     opts.VerticalScale,
			PatchResolution:   opts.PatchResolution,
			TessellationLevel: 8,
			Snapshot:          "terrain.tehf",
		},
		Brush: brush.DefaultSettings(),
		Normals: NormalsConfig{
			UpWeight:    ed.UpWeight,
			HeightScale: ed.HeightScale,
			Halo:        ed.Halo,
		},
		Smoothing: SmoothingConfig{
			Kernel: ed.SmoothKernel,
			Sigma:  ed.SmoothSigma,
			Commit: ed.SmoothCommit,
		},
		Compute: ComputeConfig{
			Backend: BackendGL,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Graphics.Width > 0 && c.Graphics.Height > 0, "graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height)
	check(c.Graphics.FOV > 0 && c.Graphics.FOV < 180, "graphics: fov %v outside (0,180)", c.Graphics.FOV)

	check(c.Terrain.Resolution > 0 && c.Terrain.Resolution <= 1<<14, "terrain: resolution %d outside [1,16384]", c.Terrain.Resolution)
	check(c.Terrain.HorizontalScale > 0, "terrain: horizontal_scale must be positive")
	check(c.Terrain.VerticalScale != 0, "terrain: vertical_scale must not be zero")
	check(c.Terrain.PatchResolution > 0, "terrain: patch_resolution must be positive")
	check(c.Terrain.TessellationLevel >= 1 && c.Terrain.TessellationLevel <= 64, "terrain: tessellation_level %d outside [1,64]", c.Terrain.TessellationLevel)

	check(c.Brush.Size >= brush.MinSize && c.Brush.Size <= brush.MaxSize, "brush: size %d outside [%d,%d]", c.Brush.Size, brush.MinSize, brush.MaxSize)
	check(c.Brush.Falloff != brush.Gaussian || c.Brush.Sigma > 0, "brush: gaussian sigma must be positive")

	check(c.Normals.UpWeight > 0, "normals: up_weight must be positive, got %v", c.Normals.UpWeight)
	check(c.Normals.HeightScale > 0, "normals: height_scale must be positive")
	check(c.Normals.Halo >= 0, "normals: halo must not be negative")

	check(c.Smoothing.Kernel >= 1 && c.Smoothing.Kernel%2 == 1, "smoothing: kernel %d must be odd and positive", c.Smoothing.Kernel)
	check(c.Smoothing.Sigma > 0, "smoothing: sigma must be positive")

	check(c.Compute.Backend == BackendGL || c.Compute.Backend == BackendCPU, "compute: unknown backend %q", c.Compute.Backend)
	check(c.Compute.Workers >= 0, "compute: workers must not be negative")

	check(logger.ValidLevel(c.Logging.Level), "logging: unknown level %q", c.Logging.Level)

	return errors.Join(errs...)
}

// TerrainOptions returns the world mapping of the terrain.
func (c *Config) TerrainOptions() terrain.Options {
	return terrain.Options{
		HorizontalScale: c.Terrain.HorizontalScale,
		VerticalScale:   c.Terrain.VerticalScale,
		PatchResolution: c.Terrain.PatchResolution,
	}
}

// Editor returns the editing session tunables.
func (c *Config) Editor() editor.Config {
	return editor.Config{
		Brush:        c.Brush,
		Terrain:      c.TerrainOptions(),
		UpWeight:     c.Normals.UpWeight,
		HeightScale:  c.Normals.HeightScale,
		Halo:         c.Normals.Halo,
		SmoothKernel: c.Smoothing.Kernel,
		SmoothSigma:  c.Smoothing.Sigma,
		SmoothCommit: c.Smoothing.Commit,
	}
}
