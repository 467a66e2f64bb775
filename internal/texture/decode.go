package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedContainer = errors.New("unsupported texture container")

// ktx2 files start with «KTX 20»\r\n\x1A\n
var ktx2Magic = []byte{0xAB, 0x4B, 0x54, 0x58, 0x20, 0x32, 0x30, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A}

// Decode reads a PNG, JPEG, BMP, TIFF or WebP image into a single-layer Image.
// KTX2 containers are recognised and rejected with ErrUnsupportedContainer.
func Decode(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, ktx2Magic) {
		return nil, fmt.Errorf("%w: ktx2", ErrUnsupportedContainer)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	out := NewImage(img)
	out.TextureDescriptor.Label = format
	return out, nil
}
