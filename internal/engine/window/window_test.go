package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestWindowFlags(t *testing.T) {
	windowed := windowFlags(Config{})
	assert.NotZero(t, windowed&sdl.WINDOW_OPENGL)
	assert.NotZero(t, windowed&sdl.WINDOW_RESIZABLE)
	assert.Zero(t, windowed&sdl.WINDOW_FULLSCREEN_DESKTOP)

	full := windowFlags(Config{Fullscreen: true})
	assert.Equal(t, uint32(sdl.WINDOW_FULLSCREEN_DESKTOP), full&sdl.WINDOW_FULLSCREEN_DESKTOP)
}

func TestSwapInterval(t *testing.T) {
	assert.Equal(t, 1, swapInterval(Config{VSync: true}))
	assert.Equal(t, 0, swapInterval(Config{}))
}

func TestContextIsCoreProfile(t *testing.T) {
	values := map[string]int{}
	for _, a := range contextAttributes() {
		values[a.name] = a.value
	}
	assert.Equal(t, 4, values["major version"])
	assert.Equal(t, 1, values["minor version"])
	assert.Equal(t, int(sdl.GL_CONTEXT_PROFILE_CORE), values["profile"])
	assert.Equal(t, 24, values["depth size"])
}
