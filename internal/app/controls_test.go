package app

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/editor"
	"github.com/Faultbox/terraedit/internal/engine/input"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		name  string
		event input.Event
		want  Action
	}{
		{"escape quits", input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_ESCAPE}, ActionQuit},
		{"smooth tool", input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_3}, ActionSelectSmooth},
		{"save", input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_F5}, ActionSave},
		{"repeat ignored", input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_F5, Repeat: true}, ActionNone},
		{"key up ignored", input.Event{Type: input.EventKeyUp, Key: sdl.SCANCODE_ESCAPE}, ActionNone},
		{"unbound key", input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_Z}, ActionNone},
		{"mouse event", input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft}, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActionFor(tt.event); got != tt.want {
				t.Errorf("ActionFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrokeTool(t *testing.T) {
	tests := []struct {
		selected editor.Tool
		shift    bool
		want     editor.Tool
	}{
		{editor.Raise, false, editor.Raise},
		{editor.Raise, true, editor.Lower},
		{editor.Lower, true, editor.Raise},
		{editor.Smooth, true, editor.Smooth},
		{editor.Smooth, false, editor.Smooth},
	}
	for _, tt := range tests {
		if got := StrokeTool(tt.selected, tt.shift); got != tt.want {
			t.Errorf("StrokeTool(%v, %v) = %v, want %v", tt.selected, tt.shift, got, tt.want)
		}
	}
}

func TestNextFalloff(t *testing.T) {
	f := brush.SineEase
	seen := []brush.Falloff{f}
	for i := 0; i < 3; i++ {
		f = NextFalloff(f)
		seen = append(seen, f)
	}
	want := []brush.Falloff{brush.SineEase, brush.Gaussian, brush.Constant, brush.SineEase}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("cycle = %v, want %v", seen, want)
		}
	}
}

func TestToggleDistance(t *testing.T) {
	if got := ToggleDistance(brush.Rectangle); got != brush.Circular {
		t.Errorf("ToggleDistance(Rectangle) = %v", got)
	}
	if got := ToggleDistance(brush.Circular); got != brush.Rectangle {
		t.Errorf("ToggleDistance(Circular) = %v", got)
	}
}

func TestBrushStep(t *testing.T) {
	tests := []struct {
		size, wheel, want int
	}{
		{1, 1, 1},
		{7, -1, -1},
		{32, 1, 4},
		{128, -2, -32},
		{32, 0, 0},
	}
	for _, tt := range tests {
		if got := BrushStep(tt.size, tt.wheel); got != tt.want {
			t.Errorf("BrushStep(%d, %d) = %d, want %d", tt.size, tt.wheel, got, tt.want)
		}
	}
}

func TestPanAxes(t *testing.T) {
	var s input.State
	if f, r := PanAxes(&s); f != 0 || r != 0 {
		t.Fatalf("idle pan = %v,%v", f, r)
	}
	s.Apply(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_W})
	s.Apply(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_A})
	if f, r := PanAxes(&s); f != 1 || r != -1 {
		t.Errorf("pan = %v,%v, want 1,-1", f, r)
	}
	s.Apply(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_S})
	if f, _ := PanAxes(&s); f != 0 {
		t.Errorf("opposing keys forward = %v, want 0", f)
	}
}

func TestDrawablePoint(t *testing.T) {
	x, y := DrawablePoint(100, 50, 800, 600, 1600, 1200)
	if x != 200 || y != 100 {
		t.Errorf("high-DPI point = %v,%v, want 200,100", x, y)
	}
	x, y = DrawablePoint(10, 20, 0, 0, 1600, 1200)
	if x != 10 || y != 20 {
		t.Errorf("zero window point = %v,%v, want 10,20", x, y)
	}
}
