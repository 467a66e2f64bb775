package viewer

import (
	"math"

	"Skyview/internal/behaviour"
	"Skyview/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	lightSweepRate = math.Pi / 5 // rad/s around Y
	lightTilt      = -math.Pi / 4
)

// LightRotation is the sun orientation after elapsed seconds: a constant downward tilt with
// the heading sweeping a full turn every ten seconds.
func LightRotation(elapsed float64) mgl32.Quat {
	return behaviour.EulerZYX(0, float32(elapsed*lightSweepRate), lightTilt)
}

// AnimateLight sets every directional light in scene to LightRotation(elapsed).
func AnimateLight(scene *behaviour.ComponentManager, elapsed float64) {
	rotation := LightRotation(elapsed)
	for _, light := range behaviour.Query[*renderer.DirectionalLight](scene) {
		light.GetGameObject().Transform.Rotation = rotation
	}
}
