// Package input handles SDL2 input events and tracks held keys for
// continuous movement.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Event types for game use
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
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int
	DeltaY int
	Button uint8
}

// Input handles all input processing.
type Input struct {
	events []Event
	held   map[sdl.Scancode]bool

	dragging       bool
	dragDX, dragDY int
	quit           bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events and converts them to game events.
// Returns true if the game should quit.
func (i *Input) Update() bool {
	i.begin()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		i.handle(event)
	}
	return i.quit
}

func (i *Input) begin() {
	i.events = i.events[:0]
	i.dragDX, i.dragDY = 0, 0
}

func (i *Input) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		i.quit = true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			i.held[e.Keysym.Scancode] = true
			if e.Repeat == 0 {
				i.events = append(i.events, Event{
					Type: EventKeyDown,
					Key:  e.Keysym.Scancode,
				})
			}
		} else if e.Type == sdl.KEYUP {
			delete(i.held, e.Keysym.Scancode)
			i.events = append(i.events, Event{
				Type: EventKeyUp,
				Key:  e.Keysym.Scancode,
			})
		}

	case *sdl.MouseMotionEvent:
		if i.dragging {
			i.dragDX += int(e.XRel)
			i.dragDY += int(e.YRel)
		}
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		})

	case *sdl.MouseButtonEvent:
		if e.Type == sdl.MOUSEBUTTONDOWN {
			if e.Button == sdl.BUTTON_LEFT {
				i.dragging = true
			}
			i.events = append(i.events, Event{
				Type:   EventMouseDown,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		} else if e.Type == sdl.MOUSEBUTTONUP {
			if e.Button == sdl.BUTTON_LEFT {
				i.dragging = false
			}
			i.events = append(i.events, Event{
				Type:   EventMouseUp,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		}
	}
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// QuitRequested reports whether the window was closed or Escape was pressed.
func (i *Input) QuitRequested() bool {
	return i.quit || i.IsKeyPressed(sdl.SCANCODE_ESCAPE)
}

// ScreenshotRequested reports whether F12 was pressed.
func (i *Input) ScreenshotRequested() bool {
	return i.IsKeyPressed(sdl.SCANCODE_F12)
}

// Resized reports whether the window changed size during the last Update.
func (i *Input) Resized() bool {
	for _, e := range i.events {
		if e.Type == EventWindowResize {
			return true
		}
	}
	return false
}

// IsKeyHeld reports whether a key is currently down.
func (i *Input) IsKeyHeld(scancode sdl.Scancode) bool {
	return i.held[scancode]
}

// Movement returns the walk and strafe axes from WASD and the arrow keys,
// each in [-1, 1].
func (i *Input) Movement() (walk, strafe float32) {
	if i.held[sdl.SCANCODE_W] || i.held[sdl.SCANCODE_UP] {
		walk++
	}
	if i.held[sdl.SCANCODE_S] || i.held[sdl.SCANCODE_DOWN] {
		walk--
	}
	if i.held[sdl.SCANCODE_D] || i.held[sdl.SCANCODE_RIGHT] {
		strafe++
	}
	if i.held[sdl.SCANCODE_A] || i.held[sdl.SCANCODE_LEFT] {
		strafe--
	}
	return walk, strafe
}

// Drag returns the mouse movement accumulated this frame while the left
// button was held.
func (i *Input) Drag() (dx, dy int) {
	return i.dragDX, i.dragDY
}
