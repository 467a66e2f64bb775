package renderer

import (
	"Skyview/internal/behaviour"
)

var FrustumCullingEnabled bool = true
var Debug bool = false

// RenderStats counts what one Render call did.
type RenderStats struct {
	Cameras  int
	Drawn    int
	Culled   int
	Deferred int // draws skipped because a bind group was not ready
}

type Render interface {
	Init() error
	// Render draws every camera targeting window. The window's GL context must be current.
	Render(window WindowID, width, height int32, scene *behaviour.ComponentManager, env Environment) RenderStats
	// ReleaseWindow frees per-context objects of a window that is about to close.
	ReleaseWindow(window WindowID)
	Cleanup()
}
