package engine

import (
	"Skyview/internal/flycam"

	"github.com/go-gl/glfw/v3.3/glfw"
)

var keyMap = map[flycam.Key]glfw.Key{
	flycam.KeyW:         glfw.KeyW,
	flycam.KeyA:         glfw.KeyA,
	flycam.KeyS:         glfw.KeyS,
	flycam.KeyD:         glfw.KeyD,
	flycam.KeyE:         glfw.KeyE,
	flycam.KeyQ:         glfw.KeyQ,
	flycam.KeySpace:     glfw.KeySpace,
	flycam.KeyLeftShift: glfw.KeyLeftShift,
}

var buttonMap = map[flycam.MouseButton]glfw.MouseButton{
	flycam.MouseButtonLeft:  glfw.MouseButtonLeft,
	flycam.MouseButtonRight: glfw.MouseButtonRight,
}

// windowInput samples the focused window once per frame. Switching focus between windows
// resets the cursor baseline so the camera does not jump.
type windowInput struct {
	focused      *glfw.Window
	lastX, lastY float64
	dx, dy       float64
}

func newWindowInput() *windowInput {
	return &windowInput{}
}

func (in *windowInput) update(windows []*Window) {
	var focused *glfw.Window
	for _, w := range windows {
		if w != nil && w.handle.GetAttrib(glfw.Focused) == glfw.True {
			focused = w.handle
			break
		}
	}

	in.dx, in.dy = 0, 0
	if focused == nil {
		in.focused = nil
		return
	}
	x, y := focused.GetCursorPos()
	if focused == in.focused {
		in.dx, in.dy = x-in.lastX, y-in.lastY
	}
	in.focused = focused
	in.lastX, in.lastY = x, y
}

func (in *windowInput) KeyPressed(k flycam.Key) bool {
	key, ok := keyMap[k]
	return ok && in.focused != nil && in.focused.GetKey(key) == glfw.Press
}

func (in *windowInput) MouseButtonPressed(b flycam.MouseButton) bool {
	button, ok := buttonMap[b]
	return ok && in.focused != nil && in.focused.GetMouseButton(button) == glfw.Press
}

func (in *windowInput) CursorDelta() (dx, dy float64) {
	return in.dx, in.dy
}
