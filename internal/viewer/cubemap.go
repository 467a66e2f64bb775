package viewer

import (
	"errors"
	"fmt"

	"Skyview/internal/assets"
	"Skyview/internal/behaviour"
	"Skyview/internal/logger"
	"Skyview/internal/renderer"
	"Skyview/internal/texture"

	"go.uber.org/zap"
)

// AssetSource is the part of the asset server the cycler drives.
type AssetSource interface {
	Load(p string) assets.Handle
	LoadState(h assets.Handle) assets.LoadState
	Mutate(h assets.Handle, fn func(img *texture.Image) error) error
	Err(h assets.Handle) error
}

// SkyboxTag marks the display cube.
const SkyboxTag = "skybox"

// CubemapState tracks which catalog entry is requested and whether it is on display.
// While Loaded is false the skybox keeps showing the previous entry.
type CubemapState struct {
	Loaded bool
	Index  int
	Handle assets.Handle
}

// Cycler swaps the skybox to the next supported catalog entry every Delay seconds.
// Advance must run before CheckLoaded within a frame.
type Cycler struct {
	State     CubemapState
	Catalog   Catalog
	Supported texture.CompressedImageFormats
	Delay     float64
	CubeSize  float32

	assets        AssetSource
	scene         *behaviour.ComponentManager
	nextSwap      float64
	scheduled     bool
	cube          *behaviour.GameObject
	failureLogged bool
}

// NewCycler requests the first catalog entry right away.
func NewCycler(catalog Catalog, source AssetSource, scene *behaviour.ComponentManager, supported texture.CompressedImageFormats, delay float64, cubeSize float32) *Cycler {
	c := &Cycler{
		Catalog:   catalog,
		Supported: supported,
		Delay:     delay,
		CubeSize:  cubeSize,
		assets:    source,
		scene:     scene,
	}
	c.State.Handle = source.Load(catalog[0].Path)
	return c
}

// NextSwap is the elapsed time of the next scheduled advance; ok is false before the first call
// to Advance.
func (c *Cycler) NextSwap() (t float64, ok bool) {
	return c.nextSwap, c.scheduled
}

// Cube is the skybox object, nil until the first entry has loaded.
func (c *Cycler) Cube() *behaviour.GameObject {
	return c.cube
}

// Advance moves to the next supported entry once the swap time has passed. The first call only
// schedules the first swap. Swaps are spaced Delay apart regardless of frame timing.
func (c *Cycler) Advance(now float64) {
	if !c.scheduled {
		c.nextSwap = now + c.Delay
		c.scheduled = true
		return
	}
	if now < c.nextSwap {
		return
	}
	c.nextSwap += c.Delay

	next := c.Catalog.NextSupported(c.State.Index, c.Supported)
	if next == c.State.Index {
		return
	}

	c.State.Index = next
	c.State.Handle = c.assets.Load(c.Catalog[next].Path)
	c.State.Loaded = false
	c.failureLogged = false
	logger.Log.Debug("Cubemap requested", zap.Int("index", next), zap.Stringer("handle", c.State.Handle))
}

// CheckLoaded puts the requested entry on display once its image has decoded. A single-layer
// image is taken to be a vertical strip of square faces and is reinterpreted as a cube.
func (c *Cycler) CheckLoaded() {
	if c.State.Loaded {
		return
	}

	switch c.assets.LoadState(c.State.Handle) {
	case assets.Loaded:
	case assets.Failed:
		// stays pending until the next swap requests another entry
		if !c.failureLogged {
			c.failureLogged = true
			logger.Log.Warn("Cubemap failed to load",
				zap.String("path", c.Catalog[c.State.Index].Path),
				zap.Error(c.assets.Err(c.State.Handle)))
		}
		return
	default:
		return
	}

	path := c.Catalog[c.State.Index].Path
	logger.Log.Info("Swapping cubemap", zap.String("path", path))

	err := c.assets.Mutate(c.State.Handle, func(img *texture.Image) error {
		if img.TextureDescriptor.ArrayLayerCount() != 1 {
			return nil
		}
		return reinterpretAsCube(img)
	})
	switch {
	case errors.Is(err, texture.ErrInvalidLayerCount):
		logger.Log.Error("Cubemap image is not a strip of square faces", zap.String("path", path), zap.Error(err))
		c.State.Loaded = true
		return
	case err != nil:
		return
	}

	c.show(c.State.Handle)
	c.State.Loaded = true
}

// reinterpretAsCube splits a vertical strip of square faces into layers and views it as a cube.
// Faces past the sixth stay in the image but are not part of the cube.
func reinterpretAsCube(img *texture.Image) error {
	w, h := img.Width(), img.Height()
	if w == 0 || h%w != 0 || h/w < texture.CubeFaces {
		return fmt.Errorf("%w: %dx%d is not a strip of at least %d square faces", texture.ErrInvalidLayerCount, w, h, texture.CubeFaces)
	}
	if err := img.ReinterpretStacked2DAsArray(h / w); err != nil {
		return err
	}
	img.ViewDescriptor = &texture.ViewDescriptor{Dimension: texture.ViewDimensionCube}
	return nil
}

// show points the skybox at h, spawning the cube on first use.
func (c *Cycler) show(h assets.Handle) {
	material := &renderer.CubemapMaterial{BaseColorTexture: &h}
	if c.cube != nil {
		if mr, ok := behaviour.GetComponent[*renderer.MeshRenderer](c.cube); ok {
			mr.Material = material
			return
		}
	}
	c.cube = behaviour.NewGameObject("skybox")
	c.cube.Tag = SkyboxTag
	c.cube.AddComponent(renderer.NewMeshRenderer(renderer.NewCubeMesh(c.CubeSize), material))
	c.scene.Spawn(c.cube)
}
