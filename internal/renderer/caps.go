package renderer

import (
	"Skyview/internal/logger"
	"Skyview/internal/texture"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// Extensions lists the extensions of the current GL context.
func Extensions() []string {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	exts := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		if s := gl.GetStringi(gl.EXTENSIONS, uint32(i)); s != nil {
			exts = append(exts, gl.GoStr(s))
		}
	}
	return exts
}

// QueryCompressedFormats reports which compressed texture families the device can sample.
func QueryCompressedFormats() texture.CompressedImageFormats {
	formats := texture.CompressedFormatsFromExtensions(Extensions())
	logger.Log.Info("Compressed texture support",
		zap.Stringer("formats", formats),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))
	return formats
}
