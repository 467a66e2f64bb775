//go:build !windows

package engine

import "github.com/go-gl/glfw/v3.3/glfw"

// decorate is a no-op where the window manager owns decorations.
func decorate(*glfw.Window) {}
