package renderer

import (
	"testing"

	"Skyview/internal/behaviour"

	"github.com/go-gl/mathgl/mgl32"
)

func attachedCamera(pos mgl32.Vec3) (*behaviour.GameObject, *Camera) {
	obj := behaviour.NewGameObject("camera")
	obj.Transform.Position = pos
	cam := NewCamera("main", RenderTarget{Window: PrimaryWindow})
	obj.AddComponent(cam)
	return obj, cam
}

func TestNewCamera(t *testing.T) {
	cam := NewCamera("main", RenderTarget{Window: 2})

	if cam.Target.Window != 2 {
		t.Errorf("Expected target window 2, got %v", cam.Target.Window)
	}
	if cam.Far <= 10000 {
		t.Error("Far plane should enclose the skybox cube")
	}
	if cam.Projection == (mgl32.Mat4{}) {
		t.Error("Projection should be computed on creation")
	}
}

func TestCameraGetProjectionMatrix(t *testing.T) {
	cam := NewCamera("main", RenderTarget{})

	proj := cam.GetProjectionMatrix()

	if proj.At(3, 3) != 0.0 {
		t.Error("Perspective projection should have w=0 at (3,3)")
	}
}

func TestCameraViewFollowsParent(t *testing.T) {
	ship := behaviour.NewGameObject("ship")
	ship.Transform.Position = mgl32.Vec3{10, 10, 0}
	camObj, cam := attachedCamera(mgl32.Vec3{})
	ship.AddChild(camObj)

	if got := cam.Position(); got.Sub(mgl32.Vec3{10, 10, 0}).Len() > 1e-5 {
		t.Errorf("Expected camera at ship position, got %v", got)
	}

	// the ship origin maps to the view-space origin
	p := cam.GetViewMatrix().Mul4x1(mgl32.Vec4{10, 10, 0, 1})
	if p.Vec3().Len() > 1e-4 {
		t.Errorf("Expected ship origin at view origin, got %v", p)
	}

	// a point in front of the camera ends up on -Z in view space
	ahead := cam.GetViewMatrix().Mul4x1(mgl32.Vec4{10, 10, -5, 1})
	if ahead.Z() >= 0 {
		t.Errorf("Point ahead should have negative view Z, got %v", ahead)
	}
}

func TestCameraSetViewport(t *testing.T) {
	cam := NewCamera("main", RenderTarget{})
	cam.SetViewport(800, 400)

	if cam.AspectRatio != 2 {
		t.Errorf("Expected aspect 2, got %f", cam.AspectRatio)
	}

	cam.SetViewport(0, 0)
	if cam.AspectRatio != 2 {
		t.Error("Zero-size viewport should be ignored")
	}
}

func TestCameraSetFov(t *testing.T) {
	cam := NewCamera("main", RenderTarget{})
	cam.SetFov(90)

	// a 90 degree vertical fov gives a y scale of 1/tan(45°)
	if got := cam.GetProjectionMatrix().At(1, 1); got < 0.9999 || got > 1.0001 {
		t.Errorf("Expected y scale 1, got %f", got)
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	_, cam := attachedCamera(mgl32.Vec3{0, 0, 5})
	frustum := cam.CalculateFrustum()

	if !frustum.IntersectsSphere(mgl32.Vec3{0, 0, 0}, 1) {
		t.Error("Sphere in front of the camera should be visible")
	}
	if frustum.IntersectsSphere(mgl32.Vec3{0, 0, 50}, 1) {
		t.Error("Sphere behind the camera should be culled")
	}
}

func TestWindowIDString(t *testing.T) {
	if PrimaryWindow.String() != "primary" {
		t.Errorf("Unexpected name %q", PrimaryWindow.String())
	}
	if WindowID(3).String() != "window#3" {
		t.Errorf("Unexpected name %q", WindowID(3).String())
	}
}
