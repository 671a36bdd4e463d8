// Package renderer owns OpenGL initialization and per-frame state.
package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/terraedit/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	VSync  bool
}

// Renderer handles frame setup on the default framebuffer.
type Renderer struct {
	config Config
	log    *zap.Logger

	Version string
	Name    string
}

// New initializes OpenGL and checks it can run compute shaders.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.Version = gl.GoStr(gl.GetString(gl.VERSION))
	r.Name = gl.GoStr(gl.GetString(gl.RENDERER))
	r.log.Info("OpenGL initialized",
		zap.String("version", r.Version),
		zap.String("renderer", r.Name),
	)

	major, minor, err := ParseVersion(r.Version)
	if err != nil {
		return nil, err
	}
	if major < 4 || (major == 4 && minor < 3) {
		return nil, fmt.Errorf("OpenGL 4.3 required for compute shaders, have %d.%d", major, minor)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0) // Dark blue-gray background
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	return r, nil
}

// Close releases renderer state.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the current viewport size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Begin starts a new frame on the default framebuffer.
func (r *Renderer) Begin() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	if err := gl.GetError(); err != gl.NO_ERROR {
		r.log.Warn("GL error", zap.String("code", fmt.Sprintf("0x%x", err)))
	}
}

// ParseVersion extracts major and minor numbers from a GL_VERSION string
// such as "4.6.0 NVIDIA 535.54" or "4.3 (Core Profile) Mesa 23.0".
func ParseVersion(version string) (major, minor int, err error) {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("empty GL version")
	}
	parts := strings.SplitN(fields[0], ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("malformed GL version %q", version)
	}
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("malformed GL version %q: %w", version, err)
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("malformed GL version %q: %w", version, err)
	}
	return major, minor, nil
}
