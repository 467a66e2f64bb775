//go:build windows

package engine

import (
	"syscall"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

var dwmSetWindowAttribute = syscall.NewLazyDLL("dwmapi.dll").NewProc("DwmSetWindowAttribute")

// DWMWINDOWATTRIBUTE values
const (
	dwmUseImmersiveDarkMode = 20
	dwmBorderColor          = 34
	dwmCaptionColor         = 35
)

// captionColor is 0x00BBGGRR
const captionColor uint32 = 0x00202020

func setWindowAttribute(hwnd unsafe.Pointer, attr uintptr, value uint32) {
	dwmSetWindowAttribute.Call(uintptr(hwnd), attr, uintptr(unsafe.Pointer(&value)), unsafe.Sizeof(value))
}

// decorate gives the window a dark caption so the viewer does not flash a light frame
// around the skybox.
func decorate(window *glfw.Window) {
	hwnd := window.GetWin32Window()
	if hwnd == nil {
		return
	}
	setWindowAttribute(unsafe.Pointer(hwnd), dwmUseImmersiveDarkMode, 1)
	setWindowAttribute(unsafe.Pointer(hwnd), dwmBorderColor, 0)
	setWindowAttribute(unsafe.Pointer(hwnd), dwmCaptionColor, captionColor)
}
