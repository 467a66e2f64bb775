package viewer

import (
	"math"

	"Skyview/internal/behaviour"

	"github.com/go-gl/mathgl/mgl32"
)

var zAxis = mgl32.Vec3{0, 0, 1}

// Rotate spins every object that has children a quarter turn per second clockwise around Z,
// and its children half a turn per second the other way.
func Rotate(scene *behaviour.ComponentManager, dt float64) {
	for _, obj := range scene.GetAllGameObjects() {
		children := obj.Children()
		if len(children) == 0 {
			continue
		}
		rotateZ(obj.Transform, float32(-math.Pi/2*dt))
		for _, child := range children {
			rotateZ(child.Transform, float32(math.Pi*dt))
		}
	}
}

// rotateZ turns t around the Z axis of its parent space.
func rotateZ(t *behaviour.Transform, angle float32) {
	t.Rotation = mgl32.QuatRotate(angle, zAxis).Mul(t.Rotation).Normalize()
}
