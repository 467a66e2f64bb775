package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripImage(t *testing.T, faces int, edge int) *Image {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, edge, edge*faces))
	for f := 0; f < faces; f++ {
		for y := 0; y < edge; y++ {
			for x := 0; x < edge; x++ {
				src.Set(x, f*edge+y, color.RGBA{R: uint8(f * 40), A: 255})
			}
		}
	}
	return NewImage(src)
}

func TestFormatsContains(t *testing.T) {
	all := FormatASTCLDR | FormatBC | FormatETC2

	assert.True(t, FormatsNone.Contains(FormatsNone))
	assert.True(t, all.Contains(FormatsNone))
	assert.True(t, all.Contains(FormatBC))
	assert.False(t, FormatsNone.Contains(FormatETC2))
	assert.False(t, FormatBC.Contains(FormatBC|FormatETC2))
}

func TestParseCompressedFormats(t *testing.T) {
	cases := map[string]CompressedImageFormats{
		"":              FormatsNone,
		"none":          FormatsNone,
		"ASTC_LDR":      FormatASTCLDR,
		"bc":            FormatBC,
		"etc2 | bc":     FormatETC2 | FormatBC,
		"astc_ldr|etc2": FormatASTCLDR | FormatETC2,
	}
	for in, want := range cases {
		got, err := ParseCompressedFormats(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompressedFormats("pvrtc")
	assert.Error(t, err)
}

func TestFormatsString(t *testing.T) {
	assert.Equal(t, "none", FormatsNone.String())
	assert.Equal(t, "bc|etc2", (FormatBC | FormatETC2).String())
}

func TestCompressedFormatsFromExtensions(t *testing.T) {
	got := CompressedFormatsFromExtensions([]string{
		"GL_ARB_ES3_compatibility",
		"GL_EXT_texture_compression_s3tc",
		"GL_ARB_texture_compression_rgtc",
	})
	assert.Equal(t, FormatETC2, got, "BC needs BPTC as well")

	got = CompressedFormatsFromExtensions([]string{
		"GL_KHR_texture_compression_astc_ldr",
		"GL_EXT_texture_compression_s3tc",
		"GL_ARB_texture_compression_rgtc",
		"GL_ARB_texture_compression_bptc",
	})
	assert.Equal(t, FormatASTCLDR|FormatBC, got)

	assert.Equal(t, FormatsNone, CompressedFormatsFromExtensions(nil))
}

func TestReinterpretStacked2DAsArray(t *testing.T) {
	img := stripImage(t, 6, 4)
	require.Equal(t, uint32(1), img.TextureDescriptor.ArrayLayerCount())
	assert.Equal(t, ViewDimension2D, img.ViewDimension())

	layers := img.Height() / img.Width()
	require.NoError(t, img.ReinterpretStacked2DAsArray(layers))

	assert.Equal(t, uint32(6), img.TextureDescriptor.ArrayLayerCount())
	assert.Equal(t, uint32(4), img.Width())
	assert.Equal(t, uint32(4), img.Height())
	assert.Equal(t, ViewDimension2DArray, img.ViewDimension())

	// layer 3 holds the fourth face's colour
	face := img.Layer(3)
	require.Len(t, face, 4*4*4)
	assert.Equal(t, uint8(120), face[0])
	assert.Nil(t, img.Layer(6))

	img.ViewDescriptor = &ViewDescriptor{Dimension: ViewDimensionCube}
	assert.Equal(t, ViewDimensionCube, img.ViewDimension())
}

func TestReinterpretRejectsBadLayerCounts(t *testing.T) {
	img := stripImage(t, 6, 4)
	assert.ErrorIs(t, img.ReinterpretStacked2DAsArray(0), ErrInvalidLayerCount)
	assert.ErrorIs(t, img.ReinterpretStacked2DAsArray(5), ErrInvalidLayerCount)

	require.NoError(t, img.ReinterpretStacked2DAsArray(6))
	assert.ErrorIs(t, img.ReinterpretStacked2DAsArray(6), ErrInvalidLayerCount, "already layered")
}

func TestCloneIsDeep(t *testing.T) {
	img := stripImage(t, 6, 2)
	img.ViewDescriptor = &ViewDescriptor{Dimension: ViewDimensionCube}

	c := img.Clone()
	c.Data[0] = 99
	c.ViewDescriptor.Dimension = ViewDimension2D

	assert.NotEqual(t, byte(99), img.Data[0])
	assert.Equal(t, ViewDimensionCube, img.ViewDescriptor.Dimension)
}

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 12))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), img.Width())
	assert.Equal(t, uint32(12), img.Height())
	assert.Equal(t, "png", img.TextureDescriptor.Label)
	assert.Equal(t, byte(255), img.Data[0])
	assert.Len(t, img.Data, 2*12*4)
}

func TestDecodeRejectsKTX2(t *testing.T) {
	data := append(append([]byte(nil), ktx2Magic...), 0, 0, 0, 0)
	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupportedContainer)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
