package behaviour

// ComponentType defines the category of a component
type ComponentType string

const (
	ComponentTypeMesh       ComponentType = "Mesh"
	ComponentTypeScript     ComponentType = "Script"
	ComponentTypeLight      ComponentType = "Light"
	ComponentTypeCamera     ComponentType = "Camera"
	ComponentTypeController ComponentType = "Controller"
	ComponentTypeCustom     ComponentType = "Custom"
)

// TypedComponent extends Component with type information
type TypedComponent interface {
	Component
	GetComponentType() ComponentType
	GetTypeName() string
}

// ScriptComponent adapts a plain func to the Component lifecycle. It runs fn every frame with
// the owning object.
type ScriptComponent struct {
	BaseComponent
	ScriptName string
	fn         func(obj *GameObject)
}

func NewScriptComponent(name string, fn func(obj *GameObject)) *ScriptComponent {
	return &ScriptComponent{ScriptName: name, fn: fn}
}

func (s *ScriptComponent) GetComponentType() ComponentType {
	return ComponentTypeScript
}

func (s *ScriptComponent) GetTypeName() string {
	return s.ScriptName
}

func (s *ScriptComponent) Update() {
	if s.fn != nil {
		s.fn(s.GetGameObject())
	}
}

// GetComponentTypeName returns the type name of comp, or "Unknown".
func GetComponentTypeName(comp Component) string {
	if typed, ok := comp.(TypedComponent); ok {
		return typed.GetTypeName()
	}
	return "Unknown"
}

// GetComponentCategory returns the category of comp, or ComponentTypeCustom.
func GetComponentCategory(comp Component) ComponentType {
	if typed, ok := comp.(TypedComponent); ok {
		return typed.GetComponentType()
	}
	return ComponentTypeCustom
}
