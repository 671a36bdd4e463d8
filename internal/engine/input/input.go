// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType is the kind of a translated event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Mouse buttons.
const (
	ButtonLeft   = sdl.BUTTON_LEFT
	ButtonMiddle = sdl.BUTTON_MIDDLE
	ButtonRight  = sdl.BUTTON_RIGHT
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Shift  bool // either shift key held
	Repeat bool // key auto-repeat
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int // motion since the previous move event
	DeltaY int
	Wheel  int // positive scrolls away from the user
	Button uint8
}

// Translate converts one SDL event. ok is false for events the editor ignores.
func Translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		}

	case *sdl.KeyboardEvent:
		ev := Event{
			Key:    e.Keysym.Scancode,
			Shift:  e.Keysym.Mod&uint16(sdl.KMOD_SHIFT) != 0,
			Repeat: e.Repeat != 0,
		}
		switch e.Type {
		case sdl.KEYDOWN:
			ev.Type = EventKeyDown
			return ev, true
		case sdl.KEYUP:
			ev.Type = EventKeyUp
			return ev, true
		}

	case *sdl.MouseMotionEvent:
		return Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		ev := Event{
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		}
		switch e.Type {
		case sdl.MOUSEBUTTONDOWN:
			ev.Type = EventMouseDown
			return ev, true
		case sdl.MOUSEBUTTONUP:
			ev.Type = EventMouseUp
			return ev, true
		}

	case *sdl.MouseWheelEvent:
		wheel := int(e.Y)
		if e.Direction == uint32(sdl.MOUSEWHEEL_FLIPPED) {
			wheel = -wheel
		}
		return Event{Type: EventMouseWheel, Wheel: wheel}, true
	}
	return Event{}, false
}

// State is the input state accumulated across events.
type State struct {
	MouseX, MouseY int
	buttons        map[uint8]bool
	keys           map[sdl.Scancode]bool
}

// Apply folds an event into the state.
func (s *State) Apply(e Event) {
	if s.buttons == nil {
		s.buttons = make(map[uint8]bool)
		s.keys = make(map[sdl.Scancode]bool)
	}
	switch e.Type {
	case EventMouseMove:
		s.MouseX, s.MouseY = e.MouseX, e.MouseY
	case EventMouseDown:
		s.MouseX, s.MouseY = e.MouseX, e.MouseY
		s.buttons[e.Button] = true
	case EventMouseUp:
		s.MouseX, s.MouseY = e.MouseX, e.MouseY
		delete(s.buttons, e.Button)
	case EventKeyDown:
		s.keys[e.Key] = true
	case EventKeyUp:
		delete(s.keys, e.Key)
	}
}

// ButtonDown reports whether a mouse button is held.
func (s *State) ButtonDown(button uint8) bool {
	return s.buttons[button]
}

// KeyDown reports whether a key is held.
func (s *State) KeyDown(key sdl.Scancode) bool {
	return s.keys[key]
}

// ShiftDown reports whether either shift key is held.
func (s *State) ShiftDown() bool {
	return s.keys[sdl.SCANCODE_LSHIFT] || s.keys[sdl.SCANCODE_RSHIFT]
}

// Input handles all input processing.
type Input struct {
	events []Event
	state  State
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to editor events.
// Returns true if the editor should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		ev, ok := Translate(event)
		if !ok {
			continue
		}
		i.state.Apply(ev)
		i.events = append(i.events, ev)
		if ev.Type == EventQuit {
			quit = true
		}
	}

	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// State returns the accumulated input state.
func (i *Input) State() *State {
	return &i.state
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode && !e.Repeat {
			return true
		}
	}
	return false
}
