package viewer

import (
	"errors"
	"image"
	"testing"

	"Skyview/internal/assets"
	"Skyview/internal/behaviour"
	"Skyview/internal/config"
	"Skyview/internal/flycam"
	"Skyview/internal/logger"
	"Skyview/internal/renderer"
	"Skyview/internal/schedule"
	"Skyview/internal/texture"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeAsset struct {
	handle assets.Handle
	state  assets.LoadState
	image  *texture.Image
	err    error
}

// fakeAssets completes loads only when told to, unless autoComplete is set.
type fakeAssets struct {
	byPath       map[string]*fakeAsset
	loads        []string
	mutations    int
	autoComplete bool
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{byPath: make(map[string]*fakeAsset)}
}

func (f *fakeAssets) Load(p string) assets.Handle {
	f.loads = append(f.loads, p)
	a, ok := f.byPath[p]
	if !ok {
		a = &fakeAsset{handle: assets.NewHandle(p), state: assets.Loading}
		f.byPath[p] = a
	}
	if f.autoComplete && a.state == assets.Loading {
		a.state, a.image = assets.Loaded, strip(4)
	}
	return a.handle
}

func (f *fakeAssets) find(h assets.Handle) *fakeAsset {
	for _, a := range f.byPath {
		if a.handle == h {
			return a
		}
	}
	return nil
}

func (f *fakeAssets) LoadState(h assets.Handle) assets.LoadState {
	if a := f.find(h); a != nil {
		return a.state
	}
	return assets.NotLoaded
}

func (f *fakeAssets) Mutate(h assets.Handle, fn func(*texture.Image) error) error {
	a := f.find(h)
	if a == nil {
		return assets.ErrUnknownHandle
	}
	if a.image == nil {
		return assets.ErrNotLoaded
	}
	f.mutations++
	return fn(a.image)
}

func (f *fakeAssets) Err(h assets.Handle) error {
	if a := f.find(h); a != nil {
		return a.err
	}
	return assets.ErrUnknownHandle
}

func (f *fakeAssets) finish(p string, img *texture.Image) {
	a := f.byPath[p]
	a.state, a.image = assets.Loaded, img
}

func (f *fakeAssets) fail(p string, err error) {
	a := f.byPath[p]
	a.state, a.err = assets.Failed, err
}

// strip is a single-layer image of six size×size faces stacked vertically.
func strip(size int) *texture.Image {
	return texture.NewImage(image.NewRGBA(image.Rect(0, 0, size, size*texture.CubeFaces)))
}

// observeLogs routes logger.Log into an in-memory sink for the duration of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })
	return logs
}

type noInput struct{}

func (noInput) KeyPressed(flycam.Key) bool                 { return false }
func (noInput) MouseButtonPressed(flycam.MouseButton) bool { return false }
func (noInput) CursorDelta() (float64, float64)            { return 0, 0 }

type fakeHost struct {
	windows []string
	formats texture.CompressedImageFormats
	err     error
}

func (h *fakeHost) SpawnWindow(title string, width, height int32) (renderer.WindowID, error) {
	if h.err != nil {
		return 0, h.err
	}
	h.windows = append(h.windows, title)
	return renderer.WindowID(len(h.windows)), nil
}

func (h *fakeHost) SupportedFormats() texture.CompressedImageFormats { return h.formats }
func (h *fakeHost) Input() flycam.Input                              { return noInput{} }
func (h *fakeHost) Clock() flycam.Clock                              { return schedule.FixedClock(0.016) }

func newTestViewer(t *testing.T, cfg config.Config, fa *fakeAssets, host *fakeHost) (*Viewer, *renderer.Environment) {
	t.Helper()
	var env renderer.Environment
	v, err := New(cfg, behaviour.NewComponentManager(), &env, fa, host)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v.LoadScene = func(ref string) (*behaviour.GameObject, error) {
		return behaviour.NewGameObject(ref), nil
	}
	return v, &env
}

var errBoom = errors.New("boom")

func rectImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
