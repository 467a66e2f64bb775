package engine

import (
	"testing"

	"Skyview/internal/flycam"

	"github.com/stretchr/testify/assert"
)

func TestEveryControllerKeyIsMapped(t *testing.T) {
	for k := flycam.KeyW; k <= flycam.KeyLeftShift; k++ {
		_, ok := keyMap[k]
		assert.True(t, ok, "key %d", k)
	}
	for b := flycam.MouseButtonLeft; b <= flycam.MouseButtonRight; b++ {
		_, ok := buttonMap[b]
		assert.True(t, ok, "button %d", b)
	}
}

func TestInputWithoutFocusIsIdle(t *testing.T) {
	in := newWindowInput()
	in.update(nil)

	assert.False(t, in.KeyPressed(flycam.KeyW))
	assert.False(t, in.MouseButtonPressed(flycam.MouseButtonRight))
	dx, dy := in.CursorDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestNewAppRegistersBehaviours(t *testing.T) {
	app := NewApp(WindowOptions{Title: "test", Width: 64, Height: 64}, nil)

	order, err := app.Update.Order()
	assert.NoError(t, err)
	assert.Equal(t, []string{SystemBehaviours}, order)
	assert.Equal(t, float32(0.05), app.Env.Ambient.Brightness)

	_, err = app.SpawnWindow(WindowOptions{Title: "second"})
	assert.ErrorIs(t, err, ErrNotRunning)
}
