package viewer

import (
	"fmt"

	"Skyview/internal/config"
	"Skyview/internal/logger"
	"Skyview/internal/texture"

	"go.uber.org/zap"
)

// CatalogEntry is a cube-map asset and the compressed formats a device needs to sample it.
type CatalogEntry struct {
	Path    string
	Formats texture.CompressedImageFormats
}

// Catalog is the fixed, ordered list the cycler walks through.
type Catalog []CatalogEntry

func CatalogFromConfig(entries []config.CatalogEntry) (Catalog, error) {
	if len(entries) == 0 {
		return nil, config.ErrEmptyCatalog
	}
	catalog := make(Catalog, 0, len(entries))
	for i, e := range entries {
		formats, err := texture.ParseCompressedFormats(e.Format)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, e.Path, err)
		}
		catalog = append(catalog, CatalogEntry{Path: e.Path, Formats: formats})
	}
	return catalog, nil
}

// NextSupported scans forward from index, wrapping around, for the first entry whose formats
// are all in supported. Every entry passed over is logged. It returns index itself when no
// other entry qualifies.
func (c Catalog) NextSupported(index int, supported texture.CompressedImageFormats) int {
	next := index
	for range c {
		next = (next + 1) % len(c)
		if supported.Contains(c[next].Formats) {
			break
		}
		logger.Log.Info("Skipping unsupported format",
			zap.String("path", c[next].Path),
			zap.Stringer("requires", c[next].Formats),
			zap.Stringer("supported", supported))
	}
	return next
}
