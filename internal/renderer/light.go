package renderer

import (
	"Skyview/internal/behaviour"

	"github.com/go-gl/mathgl/mgl32"
)

// CascadeShadowConfig splits the directional shadow map over the view distance.
type CascadeShadowConfig struct {
	NumCascades     int
	MaximumDistance float32
}

// DirectionalLight shines along the world forward (-Z) of its object, like the sun.
type DirectionalLight struct {
	behaviour.BaseComponent
	Color          mgl32.Vec3
	Illuminance    float32 // lux
	ShadowsEnabled bool
	Cascades       CascadeShadowConfig
}

// full daylight in lux
const defaultIlluminance = 100000

func NewDirectionalLight() *DirectionalLight {
	return &DirectionalLight{
		Color:       mgl32.Vec3{1, 1, 1},
		Illuminance: defaultIlluminance,
		Cascades: CascadeShadowConfig{
			NumCascades:     4,
			MaximumDistance: 1000,
		},
	}
}

func (l *DirectionalLight) GetComponentType() behaviour.ComponentType {
	return behaviour.ComponentTypeLight
}

func (l *DirectionalLight) GetTypeName() string {
	return "DirectionalLight"
}

// Direction is the world-space direction the light travels.
func (l *DirectionalLight) Direction() mgl32.Vec3 {
	if obj := l.GetGameObject(); obj != nil {
		return obj.Transform.WorldForward()
	}
	return mgl32.Vec3{0, 0, -1}
}

// Intensity maps illuminance to the shader's unitless light scale, with 1.0 at full daylight.
func (l *DirectionalLight) Intensity() float32 {
	return l.Illuminance / defaultIlluminance
}

// AmbientLight is a scene-wide fill term added to every lit surface.
type AmbientLight struct {
	Color      mgl32.Vec3
	Brightness float32
}

func DefaultAmbientLight() AmbientLight {
	return AmbientLight{Color: mgl32.Vec3{1, 1, 1}, Brightness: 0.05}
}

// ShadowMap sizes the directional shadow map texture.
type ShadowMap struct {
	Size int32
}

// Environment holds the scene-wide lighting resources the renderer reads each frame.
type Environment struct {
	Ambient   AmbientLight
	ShadowMap ShadowMap
}
