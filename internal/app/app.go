// Package app runs the interactive terrain editor: window, input, painting
// and the frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/config"
	"github.com/Faultbox/terraedit/internal/editor"
	"github.com/Faultbox/terraedit/internal/engine/camera"
	"github.com/Faultbox/terraedit/internal/engine/gpu"
	"github.com/Faultbox/terraedit/internal/engine/input"
	"github.com/Faultbox/terraedit/internal/engine/renderer"
	"github.com/Faultbox/terraedit/internal/engine/scene"
	"github.com/Faultbox/terraedit/internal/engine/screenshot"
	"github.com/Faultbox/terraedit/internal/engine/window"
	"github.com/Faultbox/terraedit/internal/logger"
	"github.com/Faultbox/terraedit/internal/terrain"
)

// App is the editor instance.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	scene    *scene.Scene
	camera   *camera.OrbitCamera
	shots    *screenshot.Capture

	// gpu owns the height and normal textures. With the cpu backend it is
	// only a texture store refreshed after every edit.
	gpu      *gpu.Backend
	executor *compute.Executor
	backend  compute.Backend
	session  *editor.Session
	plane    terrain.Bounds // undisplaced
	bounds   terrain.Bounds

	// Native file dialogs block, so they run on their own goroutine and
	// hand the chosen path back to the frame loop.
	picked chan filePick

	selected editor.Tool
	hit      editor.Hit
	hasHit   bool
	dirty    bool
}

// New creates the window, GL state and editing session.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg: cfg,
		log: logger.Named("app"),
	}
	a.log.Info("initializing editor",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("backend", cfg.Compute.Backend),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      "terraedit",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since OpenGL context must exist
	drawW, drawH := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{
		Width:  drawW,
		Height: drawH,
		VSync:  cfg.Graphics.VSync,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()
	a.picked = make(chan filePick, 1)
	a.shots = screenshot.New(filepath.Join(config.ConfigDir(), "screenshots"), "terraedit")

	if err := a.initTerrain(drawW, drawH); err != nil {
		a.Close()
		return nil, err
	}

	a.log.Info("editor initialized")
	return a, nil
}

func (a *App) initTerrain(drawW, drawH int) error {
	heights, err := a.loadHeights()
	if err != nil {
		return err
	}

	a.gpu, err = gpu.New(logger.Named("gpu"))
	if err != nil {
		return fmt.Errorf("failed to create compute backend: %w", err)
	}
	a.backend = a.gpu
	if a.cfg.Compute.Backend == config.BackendCPU {
		a.executor = compute.NewExecutor(
			compute.WithWorkers(a.cfg.Compute.Workers),
			compute.WithLogger(logger.Named("compute")),
		)
		a.backend = a.executor
	}

	opts := a.cfg.TerrainOptions()
	mesh := terrain.BuildPlane(opts)
	a.scene, err = scene.New(scene.Config{
		Width:             int32(drawW),
		Height:            int32(drawH),
		VerticalScale:     opts.VerticalScale,
		TessellationLevel: float32(a.cfg.Terrain.TessellationLevel),
		Wireframe:         a.cfg.Terrain.Wireframe,
	}, mesh)
	if err != nil {
		return fmt.Errorf("failed to create scene: %w", err)
	}

	a.plane = mesh.Bounds
	a.camera = camera.NewOrbitCamera()
	a.camera.FOV = a.cfg.Graphics.FOV

	if err := a.attach(heights); err != nil {
		return err
	}
	a.log.Info("terrain ready",
		zap.Int("width", heights.Width()),
		zap.Int("height", heights.Height()),
		zap.Int("patches", mesh.PatchCount()),
	)
	return nil
}

// attach starts a session over heights, replacing the current one, and
// makes both grids resident on the GPU.
func (a *App) attach(heights *terrain.Heightfield) error {
	normals, err := terrain.NewNormalMap(heights.Width(), heights.Height())
	if err != nil {
		return err
	}
	session, err := editor.NewSession(heights, normals, a.backend, a.cfg.Editor(), logger.Named("editor"))
	if err != nil {
		return err
	}
	for _, r := range []compute.Resource{heights, normals} {
		if err := a.gpu.Upload(r); err != nil {
			return err
		}
	}

	if old := a.session; old != nil {
		old.EndStroke()
		session.SetBrush(old.Brush())
		a.gpu.Release(old.Heights())
		a.gpu.Release(old.Normals())
	}
	a.session = session

	if err := a.session.RecomputeNormals(context.Background()); err != nil {
		return err
	}
	a.syncTextures()

	a.bounds = a.plane.WithHeights(heights, a.cfg.Terrain.VerticalScale)
	a.camera.FitToBounds(a.bounds)
	a.dirty = false
	return nil
}

// loadHeights reads the configured snapshot or starts a flat terrain when
// there is none yet.
func (a *App) loadHeights() (*terrain.Heightfield, error) {
	path := a.cfg.Terrain.Snapshot
	if path != "" {
		h, err := terrain.LoadSnapshot(path)
		switch {
		case err == nil:
			a.log.Info("snapshot loaded", zap.String("path", path))
			return h, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
	}
	res := a.cfg.Terrain.Resolution
	a.log.Info("starting flat terrain", zap.Int("resolution", res))
	return terrain.NewHeightfield(res, res)
}

// Run starts the main editor loop.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var frameBudget time.Duration
	if a.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(a.cfg.Graphics.FPSLimit)
	}

	a.log.Info("starting editor loop")

	for a.running {
		frameStart := time.Now()
		dt := frameStart.Sub(lastTime).Seconds()
		lastTime = frameStart

		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			if err := a.handleEvent(event); err != nil {
				return err
			}
		}
		a.handlePicked()

		if err := a.update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		a.render()
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			st := a.session.Stats()
			a.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Float64("dt_ms", dt*1000),
				zap.Uint64("updates", st.Updates),
				zap.Uint64("dispatches", st.Dispatches),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if rest := frameBudget - time.Since(frameStart); rest > 0 {
				time.Sleep(rest)
			}
		}
	}

	if a.dirty {
		a.log.Warn("unsaved edits discarded")
	}
	return nil
}

func (a *App) handleEvent(e input.Event) error {
	switch e.Type {
	case input.EventWindowResize:
		drawW, drawH := a.window.DrawableSize()
		a.renderer.Resize(drawW, drawH)
		a.scene.Resize(int32(drawW), int32(drawH))

	case input.EventMouseUp:
		if e.Button == input.ButtonLeft {
			a.session.EndStroke()
		}

	case input.EventMouseMove:
		if a.input.State().ButtonDown(input.ButtonRight) {
			a.camera.HandleDrag(float32(e.DeltaX), float32(e.DeltaY))
		}

	case input.EventMouseWheel:
		if a.input.State().ShiftDown() {
			b := a.session.Brush()
			a.session.SetBrush(b.Resize(BrushStep(b.Size, e.Wheel)))
		} else {
			a.camera.HandleZoom(float32(e.Wheel))
		}
	}

	switch ActionFor(e) {
	case ActionQuit:
		a.running = false
	case ActionSelectRaise:
		a.selected = editor.Raise
	case ActionSelectLower:
		a.selected = editor.Lower
	case ActionSelectSmooth:
		a.selected = editor.Smooth
	case ActionCycleFalloff:
		b := a.session.Brush()
		b.Falloff = NextFalloff(b.Falloff)
		a.session.SetBrush(b)
		a.log.Info("falloff", zap.Stringer("falloff", b.Falloff))
	case ActionToggleDistance:
		b := a.session.Brush()
		b.Distance = ToggleDistance(b.Distance)
		a.session.SetBrush(b)
		a.log.Info("distance", zap.Stringer("mode", b.Distance))
	case ActionToggleWireframe:
		a.scene.SetWireframe(!a.scene.Config().Wireframe)
	case ActionRecomputeNormals:
		if err := a.session.RecomputeNormals(context.Background()); err != nil {
			return err
		}
		a.syncTextures()
	case ActionSave:
		if err := a.save(); err != nil {
			a.log.Error("save failed", zap.Error(err))
		}
		a.saveSettings()
	case ActionSaveAs:
		a.pickFile(pickSave)
	case ActionOpen:
		a.pickFile(pickOpen)
	case ActionFitCamera:
		a.camera.FitToBounds(a.bounds)
	case ActionScreenshot:
		pixels, w, h := a.scene.CaptureImage()
		path, err := a.shots.FromPixels(pixels, int(w), int(h))
		if err != nil {
			a.log.Error("screenshot failed", zap.Error(err))
			break
		}
		a.log.Info("screenshot saved", zap.String("path", path))
	}
	return nil
}

// update picks the terrain under the cursor and applies the brush while the
// left button is held.
func (a *App) update(dt float64) error {
	state := a.input.State()

	forward, right := PanAxes(state)
	if forward != 0 || right != 0 {
		scale := float32(dt * 60)
		a.camera.HandleMovement(forward*scale, right*scale)
	}

	winW, winH := a.window.GetSize()
	drawW, drawH := a.window.DrawableSize()
	cx, cy := DrawablePoint(state.MouseX, state.MouseY, winW, winH, drawW, drawH)

	frame := a.camera.Frame(drawW, drawH)
	a.hit, a.hasHit = a.session.Pick(frame, cx, cy, drawW, drawH, a.scene.Depth())

	if !state.ButtonDown(input.ButtonLeft) || !a.hasHit {
		return nil
	}
	if !a.session.Active() {
		if err := a.session.BeginStroke(StrokeTool(a.selected, state.ShiftDown())); err != nil {
			return err
		}
	}
	if err := a.session.Apply(context.Background(), a.hit.UV); err != nil {
		// A rejected update leaves the terrain untouched; keep editing.
		var hazard *compute.HazardError
		if errors.As(err, &hazard) {
			a.log.Error("stroke rejected", zap.Error(err))
			return nil
		}
		return err
	}
	a.dirty = true
	a.syncTextures()
	return nil
}

func (a *App) render() {
	drawW, drawH := a.window.DrawableSize()
	frame := a.camera.Frame(drawW, drawH)
	if a.hasHit {
		frame = frame.WithDecal(a.session.Decal(a.hit.World))
	}

	heights, _ := a.gpu.Texture(a.session.Heights())
	normals, _ := a.gpu.Texture(a.session.Normals())

	a.renderer.Begin()
	a.scene.Render(scene.Frame{
		Projection:   frame,
		Heights:      heights,
		Normals:      normals,
		ShowDecal:    a.hasHit,
		WindowWidth:  int32(drawW),
		WindowHeight: int32(drawH),
	})
	a.renderer.End()
}

// syncTextures refreshes the GPU copies after a CPU edit. GPU edits write
// the textures directly.
func (a *App) syncTextures() {
	if a.executor == nil {
		return
	}
	for _, r := range []compute.Resource{a.session.Heights(), a.session.Normals()} {
		if err := a.gpu.Upload(r); err != nil {
			a.log.Error("texture upload failed", zap.Error(err))
		}
	}
}

// save writes the heights to the configured snapshot, reading them back
// from the GPU first when edits ran there.
func (a *App) save() error {
	path := a.cfg.Terrain.Snapshot
	if path == "" {
		return errors.New("no snapshot path configured")
	}
	h := a.session.Heights()
	if a.executor == nil {
		if err := a.gpu.Download(h); err != nil {
			return err
		}
	}
	if err := terrain.SaveSnapshot(path, h); err != nil {
		return err
	}
	a.dirty = false
	a.log.Info("snapshot saved", zap.String("path", path))
	return nil
}

// saveSettings writes the brush and view settings changed at runtime back
// to the config file.
func (a *App) saveSettings() {
	if !a.cfg.Remember(a.session.Brush(), a.scene.Config().Wireframe) {
		return
	}
	if err := a.cfg.Save(); err != nil {
		a.log.Warn("failed to save settings", zap.Error(err))
		return
	}
	a.log.Info("settings saved", zap.String("path", a.cfg.Path()))
}

// Close cleans up editor resources.
func (a *App) Close() {
	a.log.Info("closing editor")

	if a.session != nil && a.scene != nil {
		a.saveSettings()
	}

	if a.scene != nil {
		a.scene.Destroy()
	}
	if a.gpu != nil {
		a.gpu.Close()
	}
	if a.executor != nil {
		a.executor.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
