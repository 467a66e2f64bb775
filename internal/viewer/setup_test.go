package viewer

import (
	"testing"

	"Skyview/internal/behaviour"
	"Skyview/internal/config"
	"Skyview/internal/flycam"
	"Skyview/internal/renderer"
	"Skyview/internal/schedule"
	"Skyview/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Cubemap.Catalog = []config.CatalogEntry{
		{Path: "textures/space.png", Format: "none"},
		{Path: "textures/space_astc.ktx2", Format: "astc_ldr"},
		{Path: "textures/space_bc7.ktx2", Format: "bc"},
	}
	return cfg
}

func TestNewRejectsEmptyCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Cubemap.Catalog = nil
	var env renderer.Environment
	_, err := New(cfg, behaviour.NewComponentManager(), &env, newFakeAssets(), &fakeHost{})
	assert.ErrorIs(t, err, config.ErrEmptyCatalog)
}

func TestSetup(t *testing.T) {
	fa := newFakeAssets()
	host := &fakeHost{formats: texture.FormatBC}
	cfg := testConfig()
	cfg.Camera.EnvDiffuseMap = "environment_maps/pisa_diffuse_rgb9e5_zstd.ktx2"
	cfg.Camera.EnvSpecularMap = "environment_maps/pisa_specular_rgb9e5_zstd.ktx2"
	v, env := newTestViewer(t, cfg, fa, host)

	var loadedRef string
	v.LoadScene = func(ref string) (*behaviour.GameObject, error) {
		loadedRef = ref
		return behaviour.NewGameObject(ref), nil
	}
	require.NoError(t, v.Setup(schedule.Time{}))

	assert.Equal(t, "models/Dragonite/scene.gltf#Scene0", loadedRef)
	assert.Same(t, v.Root, v.Scene.FindGameObject(loadedRef))

	assert.InDelta(t, 0.2, env.Ambient.Brightness, 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, env.Ambient.Color)
	assert.Equal(t, int32(4096), env.ShadowMap.Size)

	light, ok := behaviour.GetComponent[*renderer.DirectionalLight](v.Light)
	require.True(t, ok)
	assert.True(t, light.ShadowsEnabled)
	assert.Equal(t, renderer.CascadeShadowConfig{NumCascades: 1, MaximumDistance: 1.6}, light.Cascades)

	ship := v.Ship
	require.NotNil(t, ship)
	assert.Equal(t, mgl32.Vec3{10, 10, 0}, ship.Object.Transform.Position)
	toOrigin := mgl32.Vec3{-10, -10, 0}.Normalize()
	assert.True(t, ship.Object.Transform.Forward().ApproxEqualThreshold(toOrigin, 1e-5))
	assert.Same(t, ship.Controller, mustComponent[*flycam.FlyCamera](t, ship.Object))

	assert.Equal(t, renderer.PrimaryWindow, ship.MainCamera.Target.Window)
	mainObj := ship.MainCamera.GetGameObject()
	assert.Same(t, ship.Object, mainObj.Parent())
	assert.Equal(t, mgl32.QuatRotate(1.28, mgl32.Vec3{0, 1, 0}), mainObj.Transform.Rotation)

	require.NotNil(t, ship.SecondCamera)
	assert.Equal(t, []string{"Second window"}, host.windows)
	assert.Equal(t, renderer.WindowID(1), ship.SecondCamera.Target.Window)
	assert.Same(t, ship.Object, ship.SecondCamera.GetGameObject().Parent())
	assert.Equal(t, mgl32.QuatIdent(), ship.SecondCamera.GetGameObject().Transform.Rotation)

	for _, cam := range []*renderer.Camera{ship.MainCamera, ship.SecondCamera} {
		env := mustComponent[*renderer.EnvironmentMapLight](t, cam.GetGameObject())
		assert.Equal(t, "environment_maps/pisa_diffuse_rgb9e5_zstd.ktx2", env.DiffuseMap.Path())
		assert.Equal(t, "environment_maps/pisa_specular_rgb9e5_zstd.ktx2", env.SpecularMap.Path())
	}

	require.NotNil(t, v.Cycler)
	assert.Equal(t, texture.FormatBC, v.Cycler.Supported)
	assert.Equal(t, 0, v.Cycler.State.Index)
	assert.False(t, v.Cycler.State.Loaded)
	assert.Equal(t, "textures/space.png", v.Cycler.State.Handle.Path())
	assert.Equal(t, 3.0, v.Cycler.Delay)
	assert.Contains(t, fa.loads, "textures/space.png")
}

func mustComponent[T any](t *testing.T, obj *behaviour.GameObject) T {
	t.Helper()
	c, ok := behaviour.GetComponent[T](obj)
	require.True(t, ok, "%s has no %T", obj.Name, c)
	return c
}

func TestSetupWithoutSecondWindow(t *testing.T) {
	cfg := testConfig()
	cfg.SecondWindow.Enabled = false
	host := &fakeHost{}
	fa := newFakeAssets()
	v, _ := newTestViewer(t, cfg, fa, host)

	require.NoError(t, v.Setup(schedule.Time{}))
	assert.Equal(t, []string{"textures/space.png"}, fa.loads, "default config requests no environment maps")
	assert.Empty(t, host.windows)
	assert.Nil(t, v.Ship.SecondCamera)
	assert.Len(t, v.Ship.Object.Children(), 1)
	_, ok := behaviour.GetComponent[*renderer.EnvironmentMapLight](v.Ship.MainCamera.GetGameObject())
	assert.False(t, ok)
}

func TestSetupErrors(t *testing.T) {
	t.Run("scene", func(t *testing.T) {
		v, _ := newTestViewer(t, testConfig(), newFakeAssets(), &fakeHost{})
		v.LoadScene = func(string) (*behaviour.GameObject, error) { return nil, errBoom }
		err := v.Setup(schedule.Time{})
		assert.ErrorIs(t, err, errBoom)
		assert.Nil(t, v.Cycler)
	})
	t.Run("window", func(t *testing.T) {
		v, _ := newTestViewer(t, testConfig(), newFakeAssets(), &fakeHost{err: errBoom})
		err := v.Setup(schedule.Time{})
		assert.ErrorIs(t, err, errBoom)
		assert.Nil(t, v.Ship)
	})
}

func TestRegister(t *testing.T) {
	v, _ := newTestViewer(t, testConfig(), newFakeAssets(), &fakeHost{})
	startup, update := schedule.New("startup"), schedule.New("update")
	v.Register(startup, update)

	order, err := startup.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{SystemSetup}, order)

	order, err = update.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{SystemCycleCubemap, SystemCubemapLoaded, SystemAnimateLight}, order)

	cfg := testConfig()
	cfg.Demo.Rotate = true
	v, _ = newTestViewer(t, cfg, newFakeAssets(), &fakeHost{})
	update = schedule.New("update")
	v.Register(schedule.New("startup"), update)
	order, err = update.Order()
	require.NoError(t, err)
	assert.Contains(t, order, SystemRotate)
}

// Frames at 1s intervals with an [ok, astc, ok] catalog on a device without astc: the skybox
// shows entry 0, then 2 after the first swap, then 0 again.
func TestViewerCyclesThroughSchedule(t *testing.T) {
	logs := observeLogs(t)
	fa := newFakeAssets()
	fa.autoComplete = true
	cfg := testConfig()
	cfg.Cubemap.Catalog[2].Format = "none"
	v, _ := newTestViewer(t, cfg, fa, &fakeHost{})

	startup, update := schedule.New("startup"), schedule.New("update")
	v.Register(startup, update)

	var clock schedule.Time
	clock.Advance(0)
	require.NoError(t, startup.Run(clock))

	shown := func() string {
		mr := mustComponent[*renderer.MeshRenderer](t, v.Cycler.Cube())
		return mr.Material.(*renderer.CubemapMaterial).BaseColorTexture.Path()
	}

	var seen []string
	for frame := 0; frame <= 7; frame++ {
		clock.Advance(float64(frame))
		require.NoError(t, update.Run(clock))
		if p := shown(); len(seen) == 0 || seen[len(seen)-1] != p {
			seen = append(seen, p)
		}
	}

	assert.Equal(t, []string{"textures/space.png", "textures/space_bc7.ktx2", "textures/space.png"}, seen)
	assert.Equal(t, 1, logs.FilterMessage("Skipping unsupported format").Len())
	assert.Len(t, v.Scene.FindGameObjectsWithTag(SkyboxTag), 1)

	light := mustComponent[*renderer.DirectionalLight](t, v.Light)
	assert.True(t, light.Direction().ApproxEqualThreshold(LightRotation(7).Rotate(mgl32.Vec3{0, 0, -1}), 1e-5))
}
