package viewer

import (
	"testing"

	"Skyview/internal/behaviour"
	"Skyview/internal/renderer"
	"Skyview/internal/texture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogOf(formats ...texture.CompressedImageFormats) Catalog {
	names := []string{"a.png", "b.ktx2", "c.png", "d.ktx2", "e.png"}
	c := make(Catalog, len(formats))
	for i, f := range formats {
		c[i] = CatalogEntry{Path: names[i], Formats: f}
	}
	return c
}

func newTestCycler(catalog Catalog, supported texture.CompressedImageFormats) (*Cycler, *fakeAssets, *behaviour.ComponentManager) {
	fa := newFakeAssets()
	scene := behaviour.NewComponentManager()
	return NewCycler(catalog, fa, scene, supported, 3.0, 10000), fa, scene
}

func TestNewCyclerRequestsFirstEntry(t *testing.T) {
	c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatsNone), texture.FormatsNone)

	assert.Equal(t, []string{"a.png"}, fa.loads)
	assert.Equal(t, 0, c.State.Index)
	assert.False(t, c.State.Loaded)
	assert.Equal(t, "a.png", c.State.Handle.Path())
	_, scheduled := c.NextSwap()
	assert.False(t, scheduled)
}

func TestAdvanceTiming(t *testing.T) {
	c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatsNone, texture.FormatsNone), texture.FormatsNone)

	c.Advance(0)
	next, ok := c.NextSwap()
	require.True(t, ok)
	assert.Equal(t, 3.0, next)
	assert.Equal(t, 0, c.State.Index)

	c.Advance(2.9)
	assert.Equal(t, 0, c.State.Index)

	c.Advance(3.1)
	assert.Equal(t, 1, c.State.Index)
	next, _ = c.NextSwap()
	assert.Equal(t, 6.0, next)
	assert.Equal(t, []string{"a.png", "b.ktx2"}, fa.loads)

	// a late frame advances once and keeps the original cadence
	c.Advance(10)
	assert.Equal(t, 2, c.State.Index)
	next, _ = c.NextSwap()
	assert.Equal(t, 9.0, next)
}

func TestAdvanceVisitsEveryEntryOnce(t *testing.T) {
	c, _, _ := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatsNone, texture.FormatsNone, texture.FormatsNone), texture.FormatsNone)
	c.Advance(0)

	var visited []int
	for i := 1; i <= 4; i++ {
		c.Advance(float64(i) * 3)
		visited = append(visited, c.State.Index)
	}
	assert.Equal(t, []int{1, 2, 3, 0}, visited)
}

func TestAdvanceSkipsUnsupported(t *testing.T) {
	logs := observeLogs(t)
	c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatASTCLDR, texture.FormatsNone), texture.FormatBC)
	c.State.Loaded = true
	c.Advance(0)

	c.Advance(3)
	assert.Equal(t, 2, c.State.Index)
	assert.False(t, c.State.Loaded)
	assert.Equal(t, 1, logs.FilterMessage("Skipping unsupported format").Len())

	c.Advance(6)
	assert.Equal(t, 0, c.State.Index)
	assert.Equal(t, 1, logs.FilterMessage("Skipping unsupported format").Len())
	assert.Equal(t, []string{"a.png", "c.png", "a.png"}, fa.loads)
}

func TestAdvanceKeepsIndexWhenNothingElseIsSupported(t *testing.T) {
	logs := observeLogs(t)
	c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatASTCLDR, texture.FormatBC, texture.FormatETC2), texture.FormatsNone)
	c.State.Loaded = true
	c.Advance(0)

	c.Advance(3)
	assert.Equal(t, 0, c.State.Index)
	assert.True(t, c.State.Loaded, "no swap means no new load")
	assert.Equal(t, []string{"a.png"}, fa.loads)

	skipped := logs.FilterMessage("Skipping unsupported format").All()
	require.Len(t, skipped, 3)
	for i, want := range []string{"b.ktx2", "c.png", "d.ktx2"} {
		assert.Equal(t, want, skipped[i].ContextMap()["path"])
	}

	// every attempt rescans
	c.Advance(6)
	assert.Equal(t, 6, logs.FilterMessage("Skipping unsupported format").Len())
}

func TestAdvanceWithNothingSupported(t *testing.T) {
	logs := observeLogs(t)
	c, _, _ := newTestCycler(catalogOf(texture.FormatBC, texture.FormatETC2), texture.FormatsNone)
	c.Advance(0)
	c.Advance(3)

	assert.Equal(t, 0, c.State.Index)
	assert.Equal(t, 2, logs.FilterMessage("Skipping unsupported format").Len())
	next, _ := c.NextSwap()
	assert.Equal(t, 6.0, next)
}

func TestCheckLoadedReinterpretsOnce(t *testing.T) {
	c, fa, scene := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatsNone), texture.FormatsNone)

	c.CheckLoaded()
	assert.False(t, c.State.Loaded)
	assert.Zero(t, fa.mutations)
	assert.Nil(t, c.Cube())

	fa.finish("a.png", strip(4))
	c.CheckLoaded()
	require.True(t, c.State.Loaded)
	assert.Equal(t, 1, fa.mutations)

	img := fa.byPath["a.png"].image
	assert.Equal(t, uint32(6), img.TextureDescriptor.ArrayLayerCount())
	assert.Equal(t, uint32(4), img.Height())
	assert.Equal(t, texture.ViewDimensionCube, img.ViewDimension())

	require.NotNil(t, c.Cube())
	mr, ok := behaviour.GetComponent[*renderer.MeshRenderer](c.Cube())
	require.True(t, ok)
	mat, ok := mr.Material.(*renderer.CubemapMaterial)
	require.True(t, ok)
	require.NotNil(t, mat.BaseColorTexture)
	assert.Equal(t, c.State.Handle, *mat.BaseColorTexture)
	assert.InDelta(t, 5000, mr.Mesh.Position(0).X()*sign(mr.Mesh.Position(0).X()), 1e-3)

	c.CheckLoaded()
	c.CheckLoaded()
	assert.Equal(t, 1, fa.mutations)
	assert.Equal(t, uint32(6), img.TextureDescriptor.ArrayLayerCount())
	assert.Len(t, scene.GetAllGameObjects(), 1)
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func TestCheckLoadedSwapsMaterialOnSameCube(t *testing.T) {
	c, fa, scene := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatsNone), texture.FormatsNone)
	fa.finish("a.png", strip(4))
	c.CheckLoaded()
	cube := c.Cube()
	first, _ := behaviour.GetComponent[*renderer.MeshRenderer](cube)
	firstMaterial := first.Material

	c.Advance(0)
	c.Advance(3)
	require.Equal(t, 1, c.State.Index)
	c.CheckLoaded()
	assert.False(t, c.State.Loaded)
	assert.Same(t, firstMaterial, first.Material, "previous skybox stays until the new one loads")

	fa.finish("b.ktx2", strip(8))
	c.CheckLoaded()
	assert.True(t, c.State.Loaded)
	assert.Same(t, cube, c.Cube())
	assert.NotSame(t, firstMaterial, first.Material)
	assert.Equal(t, "b.ktx2", first.Material.(*renderer.CubemapMaterial).BaseColorTexture.Path())
	assert.Len(t, scene.GetAllGameObjects(), 1)
}

func TestCheckLoadedLeavesLayeredImagesAlone(t *testing.T) {
	c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone), texture.FormatsNone)
	img := strip(4)
	require.NoError(t, img.ReinterpretStacked2DAsArray(6))
	img.ViewDescriptor = &texture.ViewDescriptor{Dimension: texture.ViewDimensionCube}
	fa.finish("a.png", img)

	c.CheckLoaded()
	assert.True(t, c.State.Loaded)
	assert.Equal(t, uint32(6), img.TextureDescriptor.ArrayLayerCount())
	assert.NotNil(t, c.Cube())
}

func TestCheckLoadedShowsTallStrip(t *testing.T) {
	c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone), texture.FormatsNone)
	img := texture.NewImage(rectImage(4, 32))
	fa.finish("a.png", img)

	c.CheckLoaded()
	assert.True(t, c.State.Loaded)
	require.NotNil(t, c.Cube())
	assert.Equal(t, uint32(8), img.TextureDescriptor.ArrayLayerCount())
	assert.Equal(t, uint32(4), img.Height())
	assert.Equal(t, texture.ViewDimensionCube, img.ViewDimension())
}

func TestCheckLoadedRejectsBadStrip(t *testing.T) {
	for name, size := range map[string][2]int{
		"ragged":      {4, 26},
		"short":       {4, 20},
		"single face": {4, 4},
	} {
		t.Run(name, func(t *testing.T) {
			logs := observeLogs(t)
			c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone), texture.FormatsNone)
			fa.finish("a.png", texture.NewImage(rectImage(size[0], size[1])))

			c.CheckLoaded()
			assert.True(t, c.State.Loaded)
			assert.Nil(t, c.Cube())
			assert.Equal(t, 1, logs.FilterMessage("Cubemap image is not a strip of square faces").Len())
			img := fa.byPath["a.png"].image
			assert.Equal(t, uint32(1), img.TextureDescriptor.ArrayLayerCount())
			assert.Equal(t, texture.ViewDimension2D, img.ViewDimension())
		})
	}
}

func TestCheckLoadedFailureStaysPending(t *testing.T) {
	logs := observeLogs(t)
	c, fa, _ := newTestCycler(catalogOf(texture.FormatsNone, texture.FormatsNone), texture.FormatsNone)
	fa.fail("a.png", errBoom)

	c.CheckLoaded()
	c.CheckLoaded()
	assert.False(t, c.State.Loaded)
	assert.Nil(t, c.Cube())
	failures := logs.FilterMessage("Cubemap failed to load").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "boom", failures[0].ContextMap()["error"])

	// the next swap moves on
	c.Advance(0)
	c.Advance(3)
	fa.finish("b.ktx2", strip(2))
	c.CheckLoaded()
	assert.True(t, c.State.Loaded)
}

func TestCatalogFromConfig(t *testing.T) {
	catalog, err := CatalogFromConfig(nil)
	assert.Error(t, err)
	assert.Nil(t, catalog)
}
