package renderer

import (
	"fmt"

	"Skyview/internal/assets"
	"Skyview/internal/logger"
	"Skyview/internal/texture"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageSource is the CPU side of texture assets.
type ImageSource interface {
	Image(h assets.Handle) (*texture.Image, bool)
	Generation(h assets.Handle) uint64
}

// TextureStats provides debugging and profiling information
type TextureStats struct {
	Uploads        int
	Reuploads      int
	Failures       int
	ActiveTextures int
	TotalMemoryMB  float64
}

type gpuEntry struct {
	image      GPUImage
	generation uint64
	path       string
	bytes      int
}

// TextureManager keeps one GPU texture per image asset and re-uploads it whenever the asset's
// generation changes. All methods need the GL context to be current; textures are shared by
// every window.
type TextureManager struct {
	source  ImageSource
	entries map[uuid.UUID]*gpuEntry
	failed  map[uuid.UUID]uint64 // generation that failed to upload
	sampler uint32
	stats   TextureStats

	upload  func(img *texture.Image, sampler uint32) (GPUImage, error)
	release func(img GPUImage)
}

func NewTextureManager(source ImageSource) *TextureManager {
	return &TextureManager{
		source:  source,
		entries: make(map[uuid.UUID]*gpuEntry),
		failed:  make(map[uuid.UUID]uint64),
		upload:  uploadImage,
		release: deleteImage,
	}
}

// Init creates the shared sampler object.
func (tm *TextureManager) Init() {
	gl.GenSamplers(1, &tm.sampler)
	gl.SamplerParameteri(tm.sampler, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.SamplerParameteri(tm.sampler, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.SamplerParameteri(tm.sampler, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.SamplerParameteri(tm.sampler, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.SamplerParameteri(tm.sampler, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
}

// Get returns the resident texture for h, uploading or refreshing it first when the asset has
// changed. It reports false while the asset has no decoded image.
func (tm *TextureManager) Get(h assets.Handle) (*GPUImage, bool) {
	if h.IsZero() {
		return nil, false
	}
	gen := tm.source.Generation(h)
	entry, ok := tm.entries[h.ID()]
	if ok && entry.generation == gen {
		return &entry.image, true
	}
	if g, failed := tm.failed[h.ID()]; failed && g == gen {
		return tm.stale(entry)
	}

	img, ok := tm.source.Image(h)
	if !ok {
		return tm.stale(entry)
	}
	gpu, err := tm.upload(img, tm.sampler)
	if err != nil {
		tm.failed[h.ID()] = gen
		tm.stats.Failures++
		logger.Log.Warn("Texture upload failed", zap.String("path", h.Path()), zap.Error(err))
		return tm.stale(entry)
	}
	delete(tm.failed, h.ID())

	if entry != nil {
		tm.release(entry.image)
		tm.stats.Reuploads++
	} else {
		entry = &gpuEntry{path: h.Path()}
		tm.entries[h.ID()] = entry
		tm.stats.Uploads++
	}
	entry.image = gpu
	entry.generation = gen
	entry.bytes = len(img.Data)

	logger.Log.Debug("Texture uploaded",
		zap.String("path", h.Path()),
		zap.Uint32("textureID", gpu.Texture),
		zap.Stringer("view", gpu.ViewDimension),
		zap.Uint32("layers", gpu.Layers),
		zap.Uint64("generation", gen))
	return &entry.image, true
}

// stale keeps serving a previous upload, if any, while a newer one is unavailable.
func (tm *TextureManager) stale(entry *gpuEntry) (*GPUImage, bool) {
	if entry == nil {
		return nil, false
	}
	return &entry.image, true
}

// Release frees the GPU copy of h.
func (tm *TextureManager) Release(h assets.Handle) {
	entry, ok := tm.entries[h.ID()]
	if !ok {
		logger.Log.Warn("Attempted to release unknown texture", zap.String("path", h.Path()))
		return
	}
	tm.release(entry.image)
	delete(tm.entries, h.ID())
	logger.Log.Info("Texture freed", zap.String("path", entry.path), zap.Uint32("textureID", entry.image.Texture))
}

// GetStats returns current texture manager statistics
func (tm *TextureManager) GetStats() TextureStats {
	stats := tm.stats
	stats.ActiveTextures = len(tm.entries)
	var total int
	for _, e := range tm.entries {
		total += e.bytes
	}
	stats.TotalMemoryMB = float64(total) / (1024 * 1024)
	return stats
}

// LogStats logs current texture statistics
func (tm *TextureManager) LogStats() {
	stats := tm.GetStats()
	logger.Log.Info("Texture Manager Stats",
		zap.Int("uploads", stats.Uploads),
		zap.Int("reuploads", stats.Reuploads),
		zap.Int("failures", stats.Failures),
		zap.Int("activeTextures", stats.ActiveTextures),
		zap.Float64("memoryMB", stats.TotalMemoryMB))
}

// Clear releases all textures and the sampler.
func (tm *TextureManager) Clear() {
	for id, e := range tm.entries {
		tm.release(e.image)
		delete(tm.entries, id)
	}
	if tm.sampler != 0 {
		gl.DeleteSamplers(1, &tm.sampler)
		tm.sampler = 0
	}
	logger.Log.Info("Texture manager cleared")
}

func glTarget(d texture.ViewDimension) uint32 {
	switch d {
	case texture.ViewDimension2DArray:
		return gl.TEXTURE_2D_ARRAY
	case texture.ViewDimensionCube:
		return gl.TEXTURE_CUBE_MAP
	case texture.ViewDimensionCubeArray:
		return gl.TEXTURE_CUBE_MAP_ARRAY
	default:
		return gl.TEXTURE_2D
	}
}

// checkImageLayout validates that img can be uploaded with its view dimension.
func checkImageLayout(img *texture.Image) error {
	w, h := img.Width(), img.Height()
	layers := img.TextureDescriptor.ArrayLayerCount()
	if w == 0 || h == 0 {
		return fmt.Errorf("empty image %dx%d", w, h)
	}
	if want := int(w) * int(h) * 4 * int(layers); len(img.Data) < want {
		return fmt.Errorf("image data is %d bytes, want %d", len(img.Data), want)
	}
	switch img.ViewDimension() {
	case texture.ViewDimensionCube:
		if w != h {
			return fmt.Errorf("cube faces must be square, got %dx%d", w, h)
		}
		if layers < texture.CubeFaces {
			return fmt.Errorf("%w: cube view needs %d layers, got %d", texture.ErrInvalidLayerCount, texture.CubeFaces, layers)
		}
	case texture.ViewDimensionCubeArray:
		if w != h {
			return fmt.Errorf("cube faces must be square, got %dx%d", w, h)
		}
		if layers%texture.CubeFaces != 0 {
			return fmt.Errorf("%w: cube array needs a multiple of %d layers, got %d", texture.ErrInvalidLayerCount, texture.CubeFaces, layers)
		}
	}
	return nil
}

func uploadImage(img *texture.Image, sampler uint32) (GPUImage, error) {
	if err := checkImageLayout(img); err != nil {
		return GPUImage{}, err
	}
	view := img.ViewDimension()
	target := glTarget(view)
	w, h := int32(img.Width()), int32(img.Height())
	layers := img.TextureDescriptor.ArrayLayerCount()

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(target, textureID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	switch view {
	case texture.ViewDimensionCube:
		// layers beyond the sixth are ignored by a single cube view
		for face := uint32(0); face < texture.CubeFaces; face++ {
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, gl.RGBA8, w, h, 0,
				gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Layer(face)))
		}
	case texture.ViewDimension2DArray, texture.ViewDimensionCubeArray:
		gl.TexImage3D(target, 0, gl.RGBA8, w, h, int32(layers), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Data))
	default:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Data))
	}
	gl.GenerateMipmap(target)
	gl.BindTexture(target, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &textureID)
		return GPUImage{}, fmt.Errorf("gl error 0x%x uploading %s texture", code, view)
	}
	return GPUImage{
		Texture:       textureID,
		Sampler:       sampler,
		ViewDimension: view,
		Width:         img.Width(),
		Height:        img.Height(),
		Layers:        layers,
	}, nil
}

func deleteImage(img GPUImage) {
	if img.Texture != 0 {
		gl.DeleteTextures(1, &img.Texture)
	}
}
