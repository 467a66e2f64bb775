package renderer

import (
	"errors"
	"fmt"

	"Skyview/internal/assets"
	"Skyview/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrRetryNextUpdate means a bind group could not be built yet, usually because a texture is
// still loading. The draw is skipped and retried on the next frame.
var ErrRetryNextUpdate = errors.New("bind group not ready, retry next update")

type ShaderStages uint32

const (
	ShaderStageVertex ShaderStages = 1 << iota
	ShaderStageFragment
)

type TextureSampleKind int

const (
	SampleFloat TextureSampleKind = iota
	SampleDepth
	SampleSint
	SampleUint
)

type TextureSampleType struct {
	Kind       TextureSampleKind
	Filterable bool
}

type TextureBindingLayout struct {
	SampleType    TextureSampleType
	ViewDimension texture.ViewDimension
	Multisampled  bool
}

type SamplerBindingType int

const (
	SamplerFiltering SamplerBindingType = iota
	SamplerNonFiltering
	SamplerComparison
)

// BindGroupLayoutEntry describes one binding slot. Exactly one of Texture or Sampler is set.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStages
	Texture    *TextureBindingLayout
	Sampler    *SamplerBindingType
}

type BindGroupLayout struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// GPUImage is a texture resident on the GPU.
type GPUImage struct {
	Texture       uint32
	Sampler       uint32
	ViewDimension texture.ViewDimension
	Width         uint32
	Height        uint32
	Layers        uint32
}

// GPUImages resolves asset handles to resident textures.
type GPUImages interface {
	Get(h assets.Handle) (*GPUImage, bool)
}

// BindGroupEntry is a resolved binding. For texture bindings Texture and ViewDimension are set,
// for sampler bindings Sampler is set.
type BindGroupEntry struct {
	Binding       uint32
	Texture       uint32
	ViewDimension texture.ViewDimension
	Sampler       uint32
}

type PreparedBindGroup struct {
	Label   string
	Entries []BindGroupEntry
}

type CullMode int

const (
	CullBack CullMode = iota
	CullFront
	CullNone
)

// PipelineDescriptor is the draw state a material may adjust before its pipeline is built.
type PipelineDescriptor struct {
	Label      string
	Shader     ShaderKind
	CullMode   CullMode
	DepthWrite bool
}

func DefaultPipelineDescriptor(label string, kind ShaderKind) PipelineDescriptor {
	return PipelineDescriptor{
		Label:      label,
		Shader:     kind,
		CullMode:   CullBack,
		DepthWrite: true,
	}
}

// Material supplies the GPU resources and pipeline tweaks for drawing a mesh.
type Material interface {
	ShaderKind() ShaderKind
	BindGroupLayout() BindGroupLayout
	// AsBindGroup resolves the material's resources. It returns ErrRetryNextUpdate while a
	// resource is not resident.
	AsBindGroup(images GPUImages) (PreparedBindGroup, error)
	Specialize(desc *PipelineDescriptor)
}

// UniformMaterial is implemented by materials that set plain uniforms besides their bindings.
type UniformMaterial interface {
	SetUniforms(u *UniformCache)
}

// CubemapMaterial draws the sampled cube texture with no lighting. Culling is off so the
// inside of a cube is visible.
type CubemapMaterial struct {
	BaseColorTexture *assets.Handle
}

const cubemapBindGroupLabel = "cubemap_texture_material_bind_group"

func (m *CubemapMaterial) ShaderKind() ShaderKind { return ShaderCubemap }

func (m *CubemapMaterial) BindGroupLayout() BindGroupLayout {
	sampler := SamplerFiltering
	return BindGroupLayout{
		Label: "cubemap_texture_material_layout",
		Entries: []BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: ShaderStageFragment,
				Texture: &TextureBindingLayout{
					SampleType:    TextureSampleType{Kind: SampleFloat, Filterable: true},
					ViewDimension: texture.ViewDimensionCube,
					Multisampled:  false,
				},
			},
			{
				Binding:    1,
				Visibility: ShaderStageFragment,
				Sampler:    &sampler,
			},
		},
	}
}

func (m *CubemapMaterial) AsBindGroup(images GPUImages) (PreparedBindGroup, error) {
	if m.BaseColorTexture == nil {
		return PreparedBindGroup{}, ErrRetryNextUpdate
	}
	img, ok := images.Get(*m.BaseColorTexture)
	if !ok {
		return PreparedBindGroup{}, ErrRetryNextUpdate
	}
	if img.ViewDimension != texture.ViewDimensionCube {
		return PreparedBindGroup{}, fmt.Errorf("%w: %s is a %s texture, want cube",
			ErrRetryNextUpdate, m.BaseColorTexture.Path(), img.ViewDimension)
	}
	return PreparedBindGroup{
		Label: cubemapBindGroupLabel,
		Entries: []BindGroupEntry{
			{Binding: 0, Texture: img.Texture, ViewDimension: texture.ViewDimensionCube},
			{Binding: 1, Sampler: img.Sampler},
		},
	}, nil
}

func (m *CubemapMaterial) Specialize(desc *PipelineDescriptor) {
	desc.CullMode = CullNone
}

// StandardMaterial is the lit material used for loaded scenes.
type StandardMaterial struct {
	Name             string
	BaseColor        mgl32.Vec4
	BaseColorTexture *assets.Handle
	Metallic         float32
	Roughness        float32
	Emissive         mgl32.Vec3
	DoubleSided      bool
	Unlit            bool
}

func NewStandardMaterial() *StandardMaterial {
	return &StandardMaterial{
		Name:      "default",
		BaseColor: mgl32.Vec4{1, 1, 1, 1},
		Metallic:  0,
		Roughness: 0.5,
	}
}

func (m *StandardMaterial) ShaderKind() ShaderKind { return ShaderStandard }

func (m *StandardMaterial) BindGroupLayout() BindGroupLayout {
	sampler := SamplerFiltering
	return BindGroupLayout{
		Label: "standard_material_layout",
		Entries: []BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: ShaderStageFragment,
				Texture: &TextureBindingLayout{
					SampleType:    TextureSampleType{Kind: SampleFloat, Filterable: true},
					ViewDimension: texture.ViewDimension2D,
				},
			},
			{Binding: 1, Visibility: ShaderStageFragment, Sampler: &sampler},
		},
	}
}

// AsBindGroup binds no texture when the material has none; the shader falls back to BaseColor.
func (m *StandardMaterial) AsBindGroup(images GPUImages) (PreparedBindGroup, error) {
	group := PreparedBindGroup{Label: "standard_material_bind_group"}
	if m.BaseColorTexture == nil {
		return group, nil
	}
	img, ok := images.Get(*m.BaseColorTexture)
	if !ok {
		return PreparedBindGroup{}, ErrRetryNextUpdate
	}
	group.Entries = []BindGroupEntry{
		{Binding: 0, Texture: img.Texture, ViewDimension: img.ViewDimension},
		{Binding: 1, Sampler: img.Sampler},
	}
	return group, nil
}

func (m *StandardMaterial) Specialize(desc *PipelineDescriptor) {
	if m.DoubleSided {
		desc.CullMode = CullNone
	}
	if m.BaseColor.W() < 1 {
		desc.DepthWrite = false
	}
}

func (m *StandardMaterial) SetUniforms(u *UniformCache) {
	u.SetVec4("baseColor", m.BaseColor)
	u.SetVec3("emissive", m.Emissive)
	u.SetFloat("metallic", m.Metallic)
	u.SetFloat("roughness", m.Roughness)
	u.SetBool("unlit", m.Unlit)
	u.SetBool("hasBaseColorTexture", m.BaseColorTexture != nil)
}
