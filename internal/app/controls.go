package app

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/editor"
	"github.com/Faultbox/terraedit/internal/engine/input"
)

// Action is a discrete editor command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionSelectRaise
	ActionSelectLower
	ActionSelectSmooth
	ActionCycleFalloff
	ActionToggleDistance
	ActionToggleWireframe
	ActionRecomputeNormals
	ActionSave
	ActionFitCamera
	ActionScreenshot
	ActionSaveAs
	ActionOpen
)

var keyActions = map[sdl.Scancode]Action{
	sdl.SCANCODE_ESCAPE: ActionQuit,
	sdl.SCANCODE_1:      ActionSelectRaise,
	sdl.SCANCODE_2:      ActionSelectLower,
	sdl.SCANCODE_3:      ActionSelectSmooth,
	sdl.SCANCODE_F:      ActionCycleFalloff,
	sdl.SCANCODE_C:      ActionToggleDistance,
	sdl.SCANCODE_TAB:    ActionToggleWireframe,
	sdl.SCANCODE_N:      ActionRecomputeNormals,
	sdl.SCANCODE_F5:     ActionSave,
	sdl.SCANCODE_HOME:   ActionFitCamera,
	sdl.SCANCODE_F12:    ActionScreenshot,
	sdl.SCANCODE_F6:     ActionSaveAs,
	sdl.SCANCODE_F3:     ActionOpen,
}

// ActionFor maps a key press to an action. Auto-repeat never triggers one.
func ActionFor(e input.Event) Action {
	if e.Type != input.EventKeyDown || e.Repeat {
		return ActionNone
	}
	return keyActions[e.Key]
}

// StrokeTool returns the tool a stroke uses. Holding shift swaps raise and
// lower; smoothing ignores it.
func StrokeTool(selected editor.Tool, shift bool) editor.Tool {
	if !shift {
		return selected
	}
	switch selected {
	case editor.Raise:
		return editor.Lower
	case editor.Lower:
		return editor.Raise
	}
	return selected
}

// NextFalloff cycles sine-ease, gaussian, constant.
func NextFalloff(f brush.Falloff) brush.Falloff {
	return (f + 1) % (brush.Constant + 1)
}

// ToggleDistance swaps the patch distance mode.
func ToggleDistance(m brush.DistanceMode) brush.DistanceMode {
	if m == brush.Circular {
		return brush.Rectangle
	}
	return brush.Circular
}

// BrushStep is the size change per wheel notch, growing with the brush so
// large brushes do not take dozens of notches.
func BrushStep(size, wheel int) int {
	step := max(1, size/8)
	return wheel * step
}

// PanAxes returns the forward and right pan amounts from held keys.
func PanAxes(s *input.State) (forward, right float32) {
	if s.KeyDown(sdl.SCANCODE_W) || s.KeyDown(sdl.SCANCODE_UP) {
		forward++
	}
	if s.KeyDown(sdl.SCANCODE_S) || s.KeyDown(sdl.SCANCODE_DOWN) {
		forward--
	}
	if s.KeyDown(sdl.SCANCODE_D) || s.KeyDown(sdl.SCANCODE_RIGHT) {
		right++
	}
	if s.KeyDown(sdl.SCANCODE_A) || s.KeyDown(sdl.SCANCODE_LEFT) {
		right--
	}
	return forward, right
}

// DrawablePoint scales a window-space cursor position into drawable pixels.
// The two differ on high-DPI displays.
func DrawablePoint(x, y, winW, winH, drawW, drawH int) (float32, float32) {
	if winW <= 0 || winH <= 0 {
		return float32(x), float32(y)
	}
	return float32(x) * float32(drawW) / float32(winW), float32(y) * float32(drawH) / float32(winH)
}
