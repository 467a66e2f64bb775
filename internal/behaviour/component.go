package behaviour

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Component is the base interface for everything attached to a GameObject.
type Component interface {
	Awake()       // Called when the component is attached
	Start()       // Called when the owning object is spawned
	Update()      // Called every frame
	FixedUpdate() // Called at the fixed update cadence
	OnDestroy()   // Called when the component or its object is destroyed

	GetEnabled() bool
	SetEnabled(bool)
	GetGameObject() *GameObject
	SetGameObject(*GameObject)
}

// BaseComponent provides no-op lifecycle methods. Components embed it and override what they need.
type BaseComponent struct {
	enabled    bool
	gameObject *GameObject
}

func (c *BaseComponent) Awake()       {}
func (c *BaseComponent) Start()       {}
func (c *BaseComponent) Update()      {}
func (c *BaseComponent) FixedUpdate() {}
func (c *BaseComponent) OnDestroy()   {}

func (c *BaseComponent) GetEnabled() bool {
	return c.enabled
}

func (c *BaseComponent) SetEnabled(enabled bool) {
	c.enabled = enabled
}

func (c *BaseComponent) GetGameObject() *GameObject {
	return c.gameObject
}

func (c *BaseComponent) SetGameObject(obj *GameObject) {
	c.gameObject = obj
}

// GameObject is an entity in the scene: a transform plus a list of components.
type GameObject struct {
	Name       string
	Tag        string
	Active     bool
	Transform  *Transform
	Components []Component
}

// Transform places a GameObject relative to its parent.
type Transform struct {
	BaseComponent
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Parent   *Transform
	Children []*Transform
}

func NewTransform() *Transform {
	return &Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) Translate(delta mgl32.Vec3) {
	t.Position = t.Position.Add(delta)
}

// Rotate applies a local rotation of angle radians around axis.
func (t *Transform) Rotate(axis mgl32.Vec3, angle float32) {
	rotation := mgl32.QuatRotate(angle, axis)
	t.Rotation = t.Rotation.Mul(rotation).Normalize()
}

func (t *Transform) SetPosition(pos mgl32.Vec3) {
	t.Position = pos
}

func (t *Transform) SetRotation(rot mgl32.Quat) {
	t.Rotation = rot
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scale = scale
}

func (t *Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

func (t *Transform) Up() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
}

func (t *Transform) Right() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
}

// LookAt rotates the transform so that Forward points at target. target is in the same space
// as Position.
func (t *Transform) LookAt(target, up mgl32.Vec3) {
	t.Rotation = lookRotation(target.Sub(t.Position), up)
}

// lookRotation builds the rotation whose -Z axis points along dir.
func lookRotation(dir, up mgl32.Vec3) mgl32.Quat {
	if dir.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	f := dir.Normalize()
	r := f.Cross(up)
	if r.Len() < 1e-6 {
		// dir is parallel to up; any perpendicular will do
		r = f.Cross(mgl32.Vec3{0, 0, 1})
		if r.Len() < 1e-6 {
			r = f.Cross(mgl32.Vec3{1, 0, 0})
		}
	}
	r = r.Normalize()
	u := r.Cross(f)
	m := mgl32.Mat3FromCols(r, u, f.Mul(-1))
	return mgl32.Mat4ToQuat(m.Mat4()).Normalize()
}

// LocalMatrix is translation * rotation * scale.
func (t *Transform) LocalMatrix() mgl32.Mat4 {
	scale := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	rotation := t.Rotation.Mat4()
	translation := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	return translation.Mul4(rotation).Mul4(scale)
}

// WorldMatrix composes the local matrices of every ancestor.
func (t *Transform) WorldMatrix() mgl32.Mat4 {
	m := t.LocalMatrix()
	for p := t.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

func (t *Transform) WorldPosition() mgl32.Vec3 {
	return t.WorldMatrix().Col(3).Vec3()
}

func (t *Transform) WorldRotation() mgl32.Quat {
	q := t.Rotation
	for p := t.Parent; p != nil; p = p.Parent {
		q = p.Rotation.Mul(q)
	}
	return q.Normalize()
}

// WorldForward is the direction the transform faces in world space.
func (t *Transform) WorldForward() mgl32.Vec3 {
	return t.WorldRotation().Rotate(mgl32.Vec3{0, 0, -1})
}

func NewGameObject(name string) *GameObject {
	obj := &GameObject{
		Name:       name,
		Active:     true,
		Components: make([]Component, 0),
		Transform:  NewTransform(),
	}
	obj.Transform.SetGameObject(obj)
	obj.Transform.SetEnabled(true)
	return obj
}

// AddComponent attaches component, enables it and calls Awake. It returns obj for chaining.
func (obj *GameObject) AddComponent(component Component) *GameObject {
	component.SetGameObject(obj)
	component.SetEnabled(true)
	obj.Components = append(obj.Components, component)
	component.Awake()
	return obj
}

func (obj *GameObject) RemoveComponent(component Component) {
	for i, comp := range obj.Components {
		if comp == component {
			comp.OnDestroy()
			obj.Components = append(obj.Components[:i], obj.Components[i+1:]...)
			return
		}
	}
}

// AddChild parents child under obj, detaching it from any previous parent.
func (obj *GameObject) AddChild(child *GameObject) *GameObject {
	ct := child.Transform
	if ct.Parent != nil {
		ct.Parent.removeChild(ct)
	}
	ct.Parent = obj.Transform
	obj.Transform.Children = append(obj.Transform.Children, ct)
	return obj
}

func (t *Transform) removeChild(child *Transform) {
	for i, c := range t.Children {
		if c == child {
			t.Children = append(t.Children[:i], t.Children[i+1:]...)
			return
		}
	}
}

// Parent returns the owning object of the parent transform, or nil for roots.
func (obj *GameObject) Parent() *GameObject {
	if obj.Transform.Parent == nil {
		return nil
	}
	return obj.Transform.Parent.GetGameObject()
}

// Children returns the objects parented directly under obj.
func (obj *GameObject) Children() []*GameObject {
	out := make([]*GameObject, 0, len(obj.Transform.Children))
	for _, c := range obj.Transform.Children {
		if o := c.GetGameObject(); o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Walk visits obj and all its descendants depth first.
func (obj *GameObject) Walk(fn func(*GameObject)) {
	fn(obj)
	for _, c := range obj.Children() {
		c.Walk(fn)
	}
}

// ActiveInHierarchy reports whether obj and every ancestor are active.
func (obj *GameObject) ActiveInHierarchy() bool {
	for o := obj; o != nil; o = o.Parent() {
		if !o.Active {
			return false
		}
	}
	return true
}

// GetComponent returns the first component of type T attached to obj.
func GetComponent[T any](obj *GameObject) (T, bool) {
	for _, comp := range obj.Components {
		if c, ok := comp.(T); ok {
			return c, true
		}
	}
	var zero T
	return zero, false
}

// GetComponents returns every component of type T attached to obj.
func GetComponents[T any](obj *GameObject) []T {
	var result []T
	for _, comp := range obj.Components {
		if c, ok := comp.(T); ok {
			result = append(result, c)
		}
	}
	return result
}

func (obj *GameObject) internalUpdate() {
	for _, comp := range obj.Components {
		if comp.GetEnabled() {
			comp.Update()
		}
	}
}

func (obj *GameObject) internalFixedUpdate() {
	for _, comp := range obj.Components {
		if comp.GetEnabled() {
			comp.FixedUpdate()
		}
	}
}

func (obj *GameObject) internalStart() {
	for _, comp := range obj.Components {
		if comp.GetEnabled() {
			comp.Start()
		}
	}
}

func (obj *GameObject) Destroy() {
	for _, comp := range obj.Components {
		comp.OnDestroy()
	}
	obj.Active = false
}

// EulerZYX builds a rotation from angles applied in Z, Y, X order (intrinsic), in radians.
func EulerZYX(z, y, x float32) mgl32.Quat {
	qz := mgl32.QuatRotate(z, mgl32.Vec3{0, 0, 1})
	qy := mgl32.QuatRotate(y, mgl32.Vec3{0, 1, 0})
	qx := mgl32.QuatRotate(x, mgl32.Vec3{1, 0, 0})
	return qz.Mul(qy).Mul(qx)
}

// ToEulerZYX is the inverse of EulerZYX for pitch within (-π/2, π/2).
func ToEulerZYX(q mgl32.Quat) (z, y, x float32) {
	m := q.Normalize().Mat4()
	// R = Rz(z) * Ry(y) * Rx(x); m.At(row, col)
	y = float32(math.Asin(float64(mgl32.Clamp(-m.At(2, 0), -1, 1))))
	z = float32(math.Atan2(float64(m.At(1, 0)), float64(m.At(0, 0))))
	x = float32(math.Atan2(float64(m.At(2, 1)), float64(m.At(2, 2))))
	return z, y, x
}
