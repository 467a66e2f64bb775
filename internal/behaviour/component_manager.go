package behaviour

import (
	"Skyview/internal/logger"

	"go.uber.org/zap"
)

// ComponentManager owns every spawned GameObject of one scene and drives their components.
type ComponentManager struct {
	gameObjects []*GameObject
	toDestroy   []*GameObject
}

func NewComponentManager() *ComponentManager {
	return &ComponentManager{
		gameObjects: make([]*GameObject, 0),
		toDestroy:   make([]*GameObject, 0),
	}
}

// Spawn registers obj and all of its descendants and starts their components.
func (cm *ComponentManager) Spawn(obj *GameObject) *GameObject {
	obj.Walk(cm.RegisterGameObject)
	return obj
}

// RegisterGameObject adds a single GameObject to the manager. Registering twice is a no-op.
func (cm *ComponentManager) RegisterGameObject(obj *GameObject) {
	for _, o := range cm.gameObjects {
		if o == obj {
			return
		}
	}
	cm.gameObjects = append(cm.gameObjects, obj)
	if obj.Active {
		obj.internalStart()
	}
	if ce := logger.Log.Check(zap.DebugLevel, "GameObject spawned"); ce != nil {
		names := make([]string, len(obj.Components))
		for i, c := range obj.Components {
			names[i] = GetComponentTypeName(c)
		}
		ce.Write(zap.String("name", obj.Name), zap.Strings("components", names))
	}
}

// UnregisterGameObject removes obj and its descendants and destroys them.
func (cm *ComponentManager) UnregisterGameObject(obj *GameObject) {
	obj.Walk(func(o *GameObject) {
		for i, g := range cm.gameObjects {
			if g == o {
				cm.gameObjects = append(cm.gameObjects[:i], cm.gameObjects[i+1:]...)
				o.Destroy()
				return
			}
		}
	})
	if p := obj.Transform.Parent; p != nil {
		p.removeChild(obj.Transform)
		obj.Transform.Parent = nil
	}
}

// FindGameObject finds a GameObject by name
func (cm *ComponentManager) FindGameObject(name string) *GameObject {
	for _, obj := range cm.gameObjects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// FindGameObjectsWithTag finds all GameObjects with a specific tag
func (cm *ComponentManager) FindGameObjectsWithTag(tag string) []*GameObject {
	var result []*GameObject
	for _, obj := range cm.gameObjects {
		if obj.Tag == tag {
			result = append(result, obj)
		}
	}
	return result
}

// UpdateAll removes objects queued for destruction and updates every active object.
func (cm *ComponentManager) UpdateAll() {
	if len(cm.toDestroy) > 0 {
		for _, obj := range cm.toDestroy {
			cm.UnregisterGameObject(obj)
		}
		cm.toDestroy = cm.toDestroy[:0]
	}

	for _, obj := range cm.gameObjects {
		if obj.ActiveInHierarchy() {
			obj.internalUpdate()
		}
	}
}

func (cm *ComponentManager) FixedUpdateAll() {
	for _, obj := range cm.gameObjects {
		if obj.ActiveInHierarchy() {
			obj.internalFixedUpdate()
		}
	}
}

// DestroyGameObject marks a GameObject for destruction (will be removed next frame)
func (cm *ComponentManager) DestroyGameObject(obj *GameObject) {
	cm.toDestroy = append(cm.toDestroy, obj)
}

// GetAllGameObjects returns all registered GameObjects
func (cm *ComponentManager) GetAllGameObjects() []*GameObject {
	return cm.gameObjects
}

// Clear removes all GameObjects
func (cm *ComponentManager) Clear() {
	for _, obj := range cm.gameObjects {
		obj.Destroy()
	}
	cm.gameObjects = cm.gameObjects[:0]
	cm.toDestroy = cm.toDestroy[:0]
}

// Query returns every enabled component of type T on objects active in the hierarchy, in
// spawn order.
func Query[T Component](cm *ComponentManager) []T {
	var result []T
	for _, obj := range cm.gameObjects {
		if !obj.ActiveInHierarchy() {
			continue
		}
		for _, comp := range obj.Components {
			if c, ok := comp.(T); ok && comp.GetEnabled() {
				result = append(result, c)
			}
		}
	}
	return result
}
