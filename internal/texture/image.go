package texture

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

var ErrInvalidLayerCount = errors.New("invalid array layer count")

type ViewDimension int

const (
	ViewDimension2D ViewDimension = iota
	ViewDimension2DArray
	ViewDimensionCube
	ViewDimensionCubeArray
)

func (d ViewDimension) String() string {
	switch d {
	case ViewDimension2D:
		return "2d"
	case ViewDimension2DArray:
		return "2d_array"
	case ViewDimensionCube:
		return "cube"
	case ViewDimensionCubeArray:
		return "cube_array"
	}
	return fmt.Sprintf("ViewDimension(%d)", int(d))
}

// CubeFaces is the number of layers a cube view consumes.
const CubeFaces = 6

type Extent3D struct {
	Width              uint32
	Height             uint32
	DepthOrArrayLayers uint32
}

type Descriptor struct {
	Size   Extent3D
	Format CompressedImageFormats
	Label  string
}

// ArrayLayerCount returns the number of 2D layers, never less than one.
func (d Descriptor) ArrayLayerCount() uint32 {
	if d.Size.DepthOrArrayLayers == 0 {
		return 1
	}
	return d.Size.DepthOrArrayLayers
}

type ViewDescriptor struct {
	Dimension ViewDimension
}

// Image is decoded, CPU-side texture data. Pixels are tightly packed RGBA8, layer after layer,
// so a vertically stacked strip is already laid out as a 2D array.
type Image struct {
	Data              []byte
	TextureDescriptor Descriptor
	// ViewDescriptor is nil for the default view (2D, or 2D array when layered).
	ViewDescriptor *ViewDescriptor
}

// NewImage copies img into a single-layer RGBA8 Image.
func NewImage(img image.Image) *Image {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Image{
		Data: rgba.Pix,
		TextureDescriptor: Descriptor{
			Size: Extent3D{
				Width:              uint32(b.Dx()),
				Height:             uint32(b.Dy()),
				DepthOrArrayLayers: 1,
			},
		},
	}
}

// Width and Height are the per-layer dimensions.
func (i *Image) Width() uint32  { return i.TextureDescriptor.Size.Width }
func (i *Image) Height() uint32 { return i.TextureDescriptor.Size.Height }

// ViewDimension resolves the effective view dimension.
func (i *Image) ViewDimension() ViewDimension {
	if i.ViewDescriptor != nil {
		return i.ViewDescriptor.Dimension
	}
	if i.TextureDescriptor.ArrayLayerCount() > 1 {
		return ViewDimension2DArray
	}
	return ViewDimension2D
}

// ReinterpretStacked2DAsArray splits a single tall 2D layer into layers equally sized
// layers stacked top to bottom. Pixel data is not moved.
func (i *Image) ReinterpretStacked2DAsArray(layers uint32) error {
	size := i.TextureDescriptor.Size
	if i.TextureDescriptor.ArrayLayerCount() != 1 {
		return fmt.Errorf("%w: image already has %d layers", ErrInvalidLayerCount, size.DepthOrArrayLayers)
	}
	if layers == 0 || size.Height%layers != 0 {
		return fmt.Errorf("%w: height %d is not divisible into %d layers", ErrInvalidLayerCount, size.Height, layers)
	}
	i.TextureDescriptor.Size = Extent3D{
		Width:              size.Width,
		Height:             size.Height / layers,
		DepthOrArrayLayers: layers,
	}
	return nil
}

// Layer returns the pixel bytes of layer n.
func (i *Image) Layer(n uint32) []byte {
	stride := int(i.Width()) * int(i.Height()) * 4
	start := int(n) * stride
	if n >= i.TextureDescriptor.ArrayLayerCount() || start+stride > len(i.Data) {
		return nil
	}
	return i.Data[start : start+stride]
}

// Clone returns a deep copy.
func (i *Image) Clone() *Image {
	out := *i
	out.Data = append([]byte(nil), i.Data...)
	if i.ViewDescriptor != nil {
		vd := *i.ViewDescriptor
		out.ViewDescriptor = &vd
	}
	return &out
}
