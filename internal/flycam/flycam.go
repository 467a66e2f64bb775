// Package flycam moves a GameObject like a free-flying camera: WASD to move, mouse to look.
package flycam

import (
	"math"

	"Skyview/internal/behaviour"

	"github.com/go-gl/mathgl/mgl32"
)

type Key int

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyE
	KeyQ
	KeySpace
	KeyLeftShift
)

type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
)

// Input is the per-frame input state the controller reads.
type Input interface {
	KeyPressed(Key) bool
	MouseButtonPressed(MouseButton) bool
	// CursorDelta is the cursor movement since the previous frame, in pixels.
	CursorDelta() (dx, dy float64)
}

// Clock supplies the frame delta in seconds.
type Clock interface {
	Delta() float64
}

type Settings struct {
	Speed       float32 // units per second
	Sensitivity float32 // degrees per pixel
	InvertMouse bool
	// RequireRightDrag only applies mouse look while the right button is held.
	RequireRightDrag bool
}

func DefaultSettings() Settings {
	return Settings{
		Speed:            10,
		Sensitivity:      0.1,
		RequireRightDrag: true,
	}
}

const (
	sprintFactor = 2.5
	maxPitch     = 89.0 * math.Pi / 180
)

var worldUp = mgl32.Vec3{0, 1, 0}

// FlyCamera drives the transform of the object it is attached to.
type FlyCamera struct {
	behaviour.BaseComponent
	Settings Settings

	input Input
	clock Clock
	yaw   float32 // radians around world Y
	pitch float32 // radians around local X
}

func New(input Input, clock Clock, settings Settings) *FlyCamera {
	return &FlyCamera{Settings: settings, input: input, clock: clock}
}

func (f *FlyCamera) GetComponentType() behaviour.ComponentType {
	return behaviour.ComponentTypeController
}

func (f *FlyCamera) GetTypeName() string {
	return "FlyCamera"
}

// Start picks up the orientation the object was spawned with.
func (f *FlyCamera) Start() {
	if obj := f.GetGameObject(); obj != nil {
		f.yaw, f.pitch = yawPitch(obj.Transform.Forward())
	}
}

func (f *FlyCamera) Update() {
	obj := f.GetGameObject()
	if obj == nil || f.input == nil || f.clock == nil {
		return
	}
	f.look(obj.Transform)
	f.move(obj.Transform, float32(f.clock.Delta()))
}

// Yaw and Pitch are the current look angles in radians.
func (f *FlyCamera) Yaw() float32   { return f.yaw }
func (f *FlyCamera) Pitch() float32 { return f.pitch }

func (f *FlyCamera) look(t *behaviour.Transform) {
	dx, dy := f.input.CursorDelta()
	if dx == 0 && dy == 0 {
		return
	}
	if f.Settings.RequireRightDrag && !f.input.MouseButtonPressed(MouseButtonRight) {
		return
	}

	sens := mgl32.DegToRad(f.Settings.Sensitivity)
	f.yaw -= float32(dx) * sens
	if f.Settings.InvertMouse {
		f.pitch += float32(dy) * sens
	} else {
		f.pitch -= float32(dy) * sens
	}
	f.pitch = mgl32.Clamp(f.pitch, -maxPitch, maxPitch)
	f.yaw = float32(math.Mod(float64(f.yaw), 2*math.Pi))

	t.Rotation = orientation(f.yaw, f.pitch)
}

func (f *FlyCamera) move(t *behaviour.Transform, dt float32) {
	var dir mgl32.Vec3
	forward := t.Forward()
	right := t.Right()

	if f.input.KeyPressed(KeyW) {
		dir = dir.Add(forward)
	}
	if f.input.KeyPressed(KeyS) {
		dir = dir.Sub(forward)
	}
	if f.input.KeyPressed(KeyD) {
		dir = dir.Add(right)
	}
	if f.input.KeyPressed(KeyA) {
		dir = dir.Sub(right)
	}
	if f.input.KeyPressed(KeyE) || f.input.KeyPressed(KeySpace) {
		dir = dir.Add(worldUp)
	}
	if f.input.KeyPressed(KeyQ) {
		dir = dir.Sub(worldUp)
	}
	if dir.Len() == 0 {
		return
	}

	velocity := f.Settings.Speed * dt
	if f.input.KeyPressed(KeyLeftShift) {
		velocity *= sprintFactor
	}
	t.Translate(dir.Normalize().Mul(velocity))
}

func orientation(yaw, pitch float32) mgl32.Quat {
	return mgl32.QuatRotate(yaw, worldUp).Mul(mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0}))
}

// yawPitch recovers the look angles of a forward vector produced by orientation.
func yawPitch(forward mgl32.Vec3) (yaw, pitch float32) {
	f := forward.Normalize()
	yaw = float32(math.Atan2(float64(-f.X()), float64(-f.Z())))
	pitch = float32(math.Asin(float64(mgl32.Clamp(f.Y(), -1, 1))))
	return yaw, mgl32.Clamp(pitch, -maxPitch, maxPitch)
}
