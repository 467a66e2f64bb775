package main

import (
	"Skyview/internal/engine"
	"Skyview/internal/flycam"
	"Skyview/internal/renderer"
	"Skyview/internal/viewer"
)

// host adapts the engine app to what the viewer needs from it.
type host struct {
	*engine.App
}

func (h host) SpawnWindow(title string, width, height int32) (renderer.WindowID, error) {
	return h.App.SpawnWindow(engine.WindowOptions{Title: title, Width: width, Height: height})
}

func (h host) Clock() flycam.Clock {
	return h.App.Time()
}

var _ viewer.Host = host{}
