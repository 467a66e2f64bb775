// Package viewer is the skybox viewer itself: a glTF scene under an animated sun, a fly-camera
// ship carrying one camera per window, and a skybox that cycles through a catalog of cube maps.
package viewer

import (
	"fmt"

	"Skyview/internal/assets"
	"Skyview/internal/behaviour"
	"Skyview/internal/config"
	"Skyview/internal/flycam"
	"Skyview/internal/loader"
	"Skyview/internal/logger"
	"Skyview/internal/renderer"
	"Skyview/internal/schedule"
	"Skyview/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// System names, in case other systems need ordering against them.
const (
	SystemSetup         = "viewer_setup"
	SystemCycleCubemap  = "cycle_cubemap"
	SystemCubemapLoaded = "cubemap_loaded"
	SystemAnimateLight  = "animate_light"
	SystemRotate        = "rotate"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Host is the windowing side of the application.
type Host interface {
	SpawnWindow(title string, width, height int32) (renderer.WindowID, error)
	SupportedFormats() texture.CompressedImageFormats
	Input() flycam.Input
	Clock() flycam.Clock
}

// SceneLoader instantiates a "file.gltf#SceneN" reference.
type SceneLoader func(ref string) (*behaviour.GameObject, error)

// Ship is the fly-camera entity and the cameras riding on it.
type Ship struct {
	Object       *behaviour.GameObject
	Controller   *flycam.FlyCamera
	MainCamera   *renderer.Camera
	SecondCamera *renderer.Camera // nil without a second window
}

type Viewer struct {
	Config    config.Config
	Scene     *behaviour.ComponentManager
	Env       *renderer.Environment
	LoadScene SceneLoader

	Catalog Catalog
	Cycler  *Cycler
	Ship    *Ship
	Light   *behaviour.GameObject
	Root    *behaviour.GameObject // the glTF scene

	assets AssetSource
	host   Host
}

func New(cfg config.Config, scene *behaviour.ComponentManager, env *renderer.Environment, source AssetSource, host Host) (*Viewer, error) {
	catalog, err := CatalogFromConfig(cfg.Cubemap.Catalog)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		Config:  cfg,
		Scene:   scene,
		Env:     env,
		Catalog: catalog,
		LoadScene: func(ref string) (*behaviour.GameObject, error) {
			return loader.LoadScene(cfg.Assets.Root, ref, source)
		},
		assets: source,
		host:   host,
	}, nil
}

// Register adds the viewer's systems. The cube-map completion check is ordered after the
// advance so a swap and its load detection can happen in the same frame.
func (v *Viewer) Register(startup, update *schedule.Schedule) {
	startup.MustAdd(SystemSetup, v.Setup)

	update.MustAdd(SystemCycleCubemap, func(t schedule.Time) error {
		if v.Cycler != nil {
			v.Cycler.Advance(t.Elapsed)
		}
		return nil
	})
	update.MustAdd(SystemCubemapLoaded, func(schedule.Time) error {
		if v.Cycler != nil {
			v.Cycler.CheckLoaded()
		}
		return nil
	}, schedule.After(SystemCycleCubemap))
	update.MustAdd(SystemAnimateLight, func(t schedule.Time) error {
		AnimateLight(v.Scene, t.Elapsed)
		return nil
	})
	if v.Config.Demo.Rotate {
		update.MustAdd(SystemRotate, func(t schedule.Time) error {
			Rotate(v.Scene, t.Delta())
			return nil
		})
	}
}

// Setup spawns everything the viewer shows and issues the first cube-map load.
func (v *Viewer) Setup(schedule.Time) error {
	cfg := v.Config

	*v.Env = Environment(cfg.Scene)
	v.Light = v.Scene.Spawn(NewSun(cfg.Scene))

	root, err := v.LoadScene(cfg.Scene.Path)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	v.Root = v.Scene.Spawn(root)

	var second *renderer.WindowID
	if cfg.SecondWindow.Enabled {
		id, err := v.host.SpawnWindow(cfg.SecondWindow.Title, cfg.SecondWindow.Width, cfg.SecondWindow.Height)
		if err != nil {
			return fmt.Errorf("second window: %w", err)
		}
		second = &id
	}

	v.Ship = NewShip(cfg, v.host.Input(), v.host.Clock(), second, v.assets)
	v.Scene.Spawn(v.Ship.Object)

	supported := v.host.SupportedFormats()
	v.Cycler = NewCycler(v.Catalog, v.assets, v.Scene, supported, cfg.Cubemap.SwapDelay, cfg.Cubemap.CubeSize)

	logger.Log.Info("Viewer ready",
		zap.String("scene", cfg.Scene.Path),
		zap.Int("cubemaps", len(v.Catalog)),
		zap.Stringer("formats", supported),
		zap.Bool("secondWindow", second != nil))
	return nil
}

// Environment is the ambient light and shadow map resources from the scene settings.
func Environment(sc config.SceneConfig) renderer.Environment {
	return renderer.Environment{
		Ambient: renderer.AmbientLight{
			Color:      mgl32.Vec3(sc.AmbientColor),
			Brightness: sc.AmbientBrightness,
		},
		ShadowMap: renderer.ShadowMap{Size: sc.ShadowMapSize},
	}
}

// NewSun builds the directional light. Its orientation is owned by AnimateLight.
func NewSun(sc config.SceneConfig) *behaviour.GameObject {
	light := renderer.NewDirectionalLight()
	light.ShadowsEnabled = sc.ShadowsEnabled
	light.Cascades = renderer.CascadeShadowConfig{
		NumCascades:     sc.Cascades.NumCascades,
		MaximumDistance: sc.Cascades.MaximumDistance,
	}
	sun := behaviour.NewGameObject("sun")
	sun.AddComponent(light)
	return sun
}

// NewShip builds the fly-camera entity with the main camera and, when second is set, a camera
// drawing into that window. Both cameras carry the environment maps.
func NewShip(cfg config.Config, input flycam.Input, clock flycam.Clock, second *renderer.WindowID, textures loader.TextureLoader) *Ship {
	ship := behaviour.NewGameObject("ship")
	ship.Transform.Position = mgl32.Vec3(cfg.Ship.Position)
	ship.Transform.LookAt(mgl32.Vec3(cfg.Ship.LookAt), worldUp)

	controller := flycam.New(input, clock, flycam.Settings{
		Speed:            cfg.Camera.Speed,
		Sensitivity:      cfg.Camera.Sensitivity,
		InvertMouse:      cfg.Camera.InvertMouse,
		RequireRightDrag: cfg.Camera.RequireRightDrag,
	})
	ship.AddComponent(controller)

	s := &Ship{Object: ship, Controller: controller}

	mainCam := renderer.NewCamera("main", renderer.RenderTarget{Window: renderer.PrimaryWindow})
	mainCam.SetFov(cfg.Camera.Fov)
	mainObj := behaviour.NewGameObject("main camera")
	mainObj.Transform.Rotation = mgl32.QuatRotate(cfg.Camera.MainYaw, worldUp)
	mainObj.AddComponent(mainCam)
	addEnvironmentMaps(mainObj, cfg.Camera, textures)
	ship.AddChild(mainObj)
	s.MainCamera = mainCam

	if second != nil {
		secondCam := renderer.NewCamera("second", renderer.RenderTarget{Window: *second})
		secondCam.SetFov(cfg.Camera.Fov)
		obj := behaviour.NewGameObject("second camera")
		obj.AddComponent(secondCam)
		addEnvironmentMaps(obj, cfg.Camera, textures)
		ship.AddChild(obj)
		s.SecondCamera = secondCam
	}
	return s
}

func addEnvironmentMaps(obj *behaviour.GameObject, cc config.CameraConfig, textures loader.TextureLoader) {
	if cc.EnvDiffuseMap == "" && cc.EnvSpecularMap == "" {
		return
	}
	env := &renderer.EnvironmentMapLight{}
	if cc.EnvDiffuseMap != "" {
		env.DiffuseMap = textures.Load(cc.EnvDiffuseMap)
	}
	if cc.EnvSpecularMap != "" {
		env.SpecularMap = textures.Load(cc.EnvSpecularMap)
	}
	obj.AddComponent(env)
}

var _ AssetSource = (*assets.Server)(nil)
