package viewer

import (
	"math"
	"testing"

	"Skyview/internal/behaviour"
	"Skyview/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heading(dir mgl32.Vec3) float64 {
	return math.Atan2(float64(-dir.X()), float64(-dir.Z()))
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b+3*math.Pi, 2*math.Pi) - math.Pi
	return math.Abs(d)
}

func TestLightRotation(t *testing.T) {
	for _, elapsed := range []float64{0, 0.5, 1, 2.5, 4, 7.25, 9.9, 12} {
		dir := LightRotation(elapsed).Rotate(mgl32.Vec3{0, 0, -1})

		assert.InDelta(t, -math.Sin(math.Pi/4), dir.Y(), 1e-5, "tilt at t=%v", elapsed)
		assert.InDelta(t, 1, dir.Len(), 1e-5)
		assert.Less(t, angleDiff(heading(dir), elapsed*math.Pi/5), 1e-4, "heading at t=%v", elapsed)
	}
}

func TestLightRotationPeriod(t *testing.T) {
	a := LightRotation(1.5).Rotate(mgl32.Vec3{0, 0, -1})
	b := LightRotation(11.5).Rotate(mgl32.Vec3{0, 0, -1})
	assert.True(t, a.ApproxEqualThreshold(b, 1e-4), "%v != %v", a, b)
}

func TestAnimateLight(t *testing.T) {
	scene := behaviour.NewComponentManager()
	sun := scene.Spawn(behaviour.NewGameObject("sun").AddComponent(renderer.NewDirectionalLight()))
	other := scene.Spawn(behaviour.NewGameObject("other"))

	AnimateLight(scene, 2.5)

	light, ok := behaviour.GetComponent[*renderer.DirectionalLight](sun)
	require.True(t, ok)
	dir := light.Direction()
	assert.InDelta(t, -math.Sin(math.Pi/4), dir.Y(), 1e-5)
	assert.InDelta(t, -math.Cos(math.Pi/4), dir.X(), 1e-5, "a quarter turn points along -X")
	assert.Equal(t, mgl32.QuatIdent(), other.Transform.Rotation)
}

func TestRotate(t *testing.T) {
	scene := behaviour.NewComponentManager()
	parent := behaviour.NewGameObject("parent")
	child := behaviour.NewGameObject("child")
	parent.AddChild(child)
	scene.Spawn(parent)

	Rotate(scene, 1)

	right := mgl32.Vec3{1, 0, 0}
	assert.True(t, parent.Transform.Rotation.Rotate(right).ApproxEqualThreshold(mgl32.Vec3{0, -1, 0}, 1e-5))
	assert.True(t, child.Transform.Rotation.Rotate(right).ApproxEqualThreshold(mgl32.Vec3{-1, 0, 0}, 1e-5))
	// half a turn one way and a quarter the other leaves the child a quarter turn counterclockwise
	assert.True(t, child.Transform.WorldRotation().Rotate(right).ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5))
}
