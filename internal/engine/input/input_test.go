package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func key(typ uint32, code sdl.Scancode, repeat uint8) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{Type: typ, Repeat: repeat, Keysym: sdl.Keysym{Scancode: code}}
}

func TestHeldKeysDriveMovement(t *testing.T) {
	in := New()
	in.begin()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_W, 0))
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_A, 0))

	walk, strafe := in.Movement()
	assert.Equal(t, float32(1), walk)
	assert.Equal(t, float32(-1), strafe)
	assert.True(t, in.IsKeyPressed(sdl.SCANCODE_W))

	// held across frames without new events
	in.begin()
	assert.True(t, in.IsKeyHeld(sdl.SCANCODE_W))
	assert.False(t, in.IsKeyPressed(sdl.SCANCODE_W))

	in.handle(key(sdl.KEYUP, sdl.SCANCODE_W, 0))
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_S, 0))
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_DOWN, 0))
	walk, _ = in.Movement()
	assert.Equal(t, float32(-1), walk)
}

func TestKeyRepeatIsNotAPress(t *testing.T) {
	in := New()
	in.begin()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_ESCAPE, 1))
	assert.False(t, in.IsKeyPressed(sdl.SCANCODE_ESCAPE))
	assert.True(t, in.IsKeyHeld(sdl.SCANCODE_ESCAPE))
}

func TestDragOnlyWithLeftButton(t *testing.T) {
	in := New()
	in.begin()
	in.handle(&sdl.MouseMotionEvent{XRel: 5, YRel: 2})
	dx, dy := in.Drag()
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	in.handle(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT})
	in.handle(&sdl.MouseMotionEvent{XRel: 5, YRel: 2})
	in.handle(&sdl.MouseMotionEvent{XRel: -1, YRel: 1})
	dx, dy = in.Drag()
	assert.Equal(t, 4, dx)
	assert.Equal(t, 3, dy)

	in.begin()
	in.handle(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_LEFT})
	in.handle(&sdl.MouseMotionEvent{XRel: 9})
	dx, _ = in.Drag()
	assert.Zero(t, dx)
}

func TestQuitAndResize(t *testing.T) {
	in := New()
	in.begin()
	in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600})
	in.handle(&sdl.QuitEvent{})

	assert.True(t, in.quit)
	ev := in.Events()
	assert.Len(t, ev, 2)
	assert.Equal(t, EventWindowResize, ev[0].Type)
	assert.Equal(t, 800, ev[0].Width)
	assert.Equal(t, EventQuit, ev[1].Type)
}

func TestEscapeRequestsQuit(t *testing.T) {
	in := New()
	in.begin()
	assert.False(t, in.QuitRequested())
	assert.False(t, in.Resized())

	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_ESCAPE, 0))
	assert.True(t, in.QuitRequested())
	assert.False(t, in.ScreenshotRequested())

	in.begin()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_F12, 0))
	assert.True(t, in.ScreenshotRequested())

	in.begin()
	in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_SIZE_CHANGED, Data1: 640, Data2: 480})
	assert.False(t, in.QuitRequested())
	assert.True(t, in.Resized())
}
