// camera.go
package renderer

import (
	"fmt"

	"Skyview/internal/assets"
	"Skyview/internal/behaviour"

	"github.com/go-gl/mathgl/mgl32"
)

// WindowID names an output window. The primary window is always 0.
type WindowID uint32

const PrimaryWindow WindowID = 0

func (id WindowID) String() string {
	if id == PrimaryWindow {
		return "primary"
	}
	return fmt.Sprintf("window#%d", uint32(id))
}

// RenderTarget is where a camera draws.
type RenderTarget struct {
	Window WindowID
}

// Camera is a perspective camera component. Its view follows the world transform of the
// object it is attached to.
type Camera struct {
	behaviour.BaseComponent

	// HOT DATA - Accessed every frame for view/projection calculations
	Projection mgl32.Mat4
	Target     RenderTarget
	Order      int // cameras on the same target draw in ascending order

	// COLD DATA
	Fov         float32 // vertical field of view in degrees
	Near        float32
	Far         float32
	AspectRatio float32
	ClearColor  mgl32.Vec4
	Name        string
}

func NewCamera(name string, target RenderTarget) *Camera {
	c := &Camera{
		Name:        name,
		Target:      target,
		Fov:         45.0,
		Near:        0.1,
		Far:         20000.0, // the skybox cube is 10000 across
		AspectRatio: 16.0 / 9.0,
		ClearColor:  mgl32.Vec4{0, 0, 0, 1},
	}
	c.UpdateProjection()
	return c
}

func (c *Camera) GetComponentType() behaviour.ComponentType {
	return behaviour.ComponentTypeCamera
}

func (c *Camera) GetTypeName() string {
	return "Camera"
}

func (c *Camera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

// SetFov sets the vertical field of view in degrees and rebuilds the projection.
func (c *Camera) SetFov(fov float32) {
	c.Fov = fov
	c.UpdateProjection()
}

// SetViewport updates the aspect ratio from a framebuffer size. Zero sizes (minimized
// windows) are ignored.
func (c *Camera) SetViewport(width, height int32) {
	if width <= 0 || height <= 0 {
		return
	}
	aspect := float32(width) / float32(height)
	if aspect != c.AspectRatio {
		c.AspectRatio = aspect
		c.UpdateProjection()
	}
}

func (c *Camera) transform() *behaviour.Transform {
	if obj := c.GetGameObject(); obj != nil {
		return obj.Transform
	}
	return behaviour.NewTransform()
}

// Position is the camera position in world space.
func (c *Camera) Position() mgl32.Vec3 {
	return c.transform().WorldPosition()
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	t := c.transform()
	rot := t.WorldRotation()
	pos := t.WorldPosition()
	forward := rot.Rotate(mgl32.Vec3{0, 0, -1})
	up := rot.Rotate(mgl32.Vec3{0, 1, 0})
	return mgl32.LookAtV(pos, pos.Add(forward), up)
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return c.Projection
}

func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.GetViewMatrix())
}

type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

type Frustum struct {
	Planes [6]Plane
}

func (c *Camera) CalculateFrustum() Frustum {
	var frustum Frustum
	vp := c.GetViewProjection()

	// Left Plane
	frustum.Planes[0] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[0], vp[7] + vp[4], vp[11] + vp[8]},
		Distance: vp[15] + vp[12],
	}

	// Right Plane
	frustum.Planes[1] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[0], vp[7] - vp[4], vp[11] - vp[8]},
		Distance: vp[15] - vp[12],
	}

	// Bottom Plane
	frustum.Planes[2] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[1], vp[7] + vp[5], vp[11] + vp[9]},
		Distance: vp[15] + vp[13],
	}

	// Top Plane
	frustum.Planes[3] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[1], vp[7] - vp[5], vp[11] - vp[9]},
		Distance: vp[15] - vp[13],
	}

	// Near Plane
	frustum.Planes[4] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[2], vp[7] + vp[6], vp[11] + vp[10]},
		Distance: vp[15] + vp[14],
	}

	// Far Plane
	frustum.Planes[5] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[2], vp[7] - vp[6], vp[11] - vp[10]},
		Distance: vp[15] - vp[14],
	}

	for i := 0; i < 6; i++ {
		length := frustum.Planes[i].Normal.Len()
		frustum.Planes[i].Normal = frustum.Planes[i].Normal.Mul(1.0 / length)
		frustum.Planes[i].Distance /= length
	}

	return frustum
}

func (p *Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// EnvironmentMapLight records the prefiltered diffuse and specular maps for image based
// lighting on a camera. The maps are loaded but not yet sampled by the standard shader.
type EnvironmentMapLight struct {
	behaviour.BaseComponent
	DiffuseMap  assets.Handle
	SpecularMap assets.Handle
}

func (e *EnvironmentMapLight) GetComponentType() behaviour.ComponentType {
	return behaviour.ComponentTypeLight
}

func (e *EnvironmentMapLight) GetTypeName() string {
	return "EnvironmentMapLight"
}
