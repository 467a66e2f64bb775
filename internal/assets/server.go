package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"

	"Skyview/internal/logger"
	"Skyview/internal/texture"

	"github.com/alitto/pond/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownHandle = errors.New("unknown asset handle")
	ErrClosed        = errors.New("asset server closed")
	ErrNotLoaded     = errors.New("asset not loaded")
)

type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

// Handle is a non-owning reference to an image asset. The zero Handle refers to nothing.
type Handle struct {
	id   uuid.UUID
	path string
}

// NewHandle mints a fresh handle for p. Sources other than Server use it to hand out handles
// with the same identity semantics.
func NewHandle(p string) Handle {
	return Handle{id: uuid.New(), path: path.Clean(p)}
}

func (h Handle) ID() uuid.UUID { return h.id }
func (h Handle) Path() string  { return h.path }
func (h Handle) IsZero() bool  { return h.id == uuid.Nil }

func (h Handle) String() string {
	if h.IsZero() {
		return "Handle(nil)"
	}
	return fmt.Sprintf("Handle(%s %s)", h.path, h.id)
}

// DecodeFunc turns raw file contents into an image.
type DecodeFunc func(r io.Reader) (*texture.Image, error)

type entry struct {
	path       string
	state      LoadState
	image      *texture.Image
	err        error
	generation uint64
}

// Server loads image assets in the background and lets the frame loop poll for completion.
// Loading the same path twice returns the same handle; a failed path is retried on the next Load.
type Server struct {
	root   string
	fsys   fs.FS
	decode DecodeFunc
	pool   pond.Pool

	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	byPath  map[string]uuid.UUID
	watched map[string]bool
	watcher *fsnotify.Watcher
	closed  bool
}

type Option func(*Server)

// WithFS serves assets from fsys instead of the root directory. Watch is unavailable.
func WithFS(fsys fs.FS) Option {
	return func(s *Server) {
		s.fsys = fsys
		s.root = ""
	}
}

func WithDecoder(decode DecodeFunc) Option {
	return func(s *Server) {
		s.decode = decode
	}
}

// NewServer creates a server reading from root with the given number of decode workers.
func NewServer(root string, workers int, opts ...Option) *Server {
	if workers <= 0 {
		workers = 1
	}
	s := &Server{
		root:    root,
		fsys:    os.DirFS(root),
		decode:  texture.Decode,
		pool:    pond.NewPool(workers),
		entries: make(map[uuid.UUID]*entry),
		byPath:  make(map[string]uuid.UUID),
		watched: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load requests the asset at p and returns immediately.
func (s *Server) Load(p string) Handle {
	p = path.Clean(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byPath[p]; ok {
		e := s.entries[id]
		if e.state == Failed && !s.closed {
			e.state = Loading
			e.err = nil
			s.submit(id, e.path, false)
		}
		return Handle{id: id, path: p}
	}

	id := uuid.New()
	e := &entry{path: p, state: Loading}
	s.entries[id] = e
	s.byPath[p] = id

	if s.closed {
		e.state = Failed
		e.err = ErrClosed
		return Handle{id: id, path: p}
	}
	s.submit(id, p, false)
	s.watchLocked(p)

	logger.Log.Debug("Asset load requested", zap.String("path", p), zap.Stringer("id", id))
	return Handle{id: id, path: p}
}

// submit must be called with s.mu held.
func (s *Server) submit(id uuid.UUID, p string, reload bool) {
	s.pool.Submit(func() {
		img, err := s.read(p)
		s.finish(id, img, err, reload)
	})
}

func (s *Server) read(p string) (*texture.Image, error) {
	f, err := s.fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.decode(f)
}

func (s *Server) finish(id uuid.UUID, img *texture.Image, err error, reload bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}

	if reload {
		if err != nil {
			logger.Log.Warn("Asset reload failed, keeping previous data", zap.String("path", e.path), zap.Error(err))
			return
		}
		reshapeLike(img, e.image)
		e.image = img
		e.generation++
		logger.Log.Info("Asset reloaded", zap.String("path", e.path), zap.Uint64("generation", e.generation))
		return
	}

	if err != nil {
		e.state = Failed
		e.err = err
		logger.Log.Warn("Asset failed to load", zap.String("path", e.path), zap.Error(err))
		return
	}
	e.image = img
	e.state = Loaded
	e.generation++
	logger.Log.Debug("Asset loaded", zap.String("path", e.path),
		zap.Uint32("width", img.Width()), zap.Uint32("height", img.Height()))
}

// reshapeLike applies the array/cube interpretation of prev to a freshly decoded image.
func reshapeLike(img, prev *texture.Image) {
	if prev == nil {
		return
	}
	layers := prev.TextureDescriptor.ArrayLayerCount()
	if layers > 1 && img.TextureDescriptor.ArrayLayerCount() == 1 {
		if err := img.ReinterpretStacked2DAsArray(layers); err != nil {
			logger.Log.Warn("Reloaded asset no longer matches its layer layout", zap.Error(err))
			return
		}
	}
	if prev.ViewDescriptor != nil {
		vd := *prev.ViewDescriptor
		img.ViewDescriptor = &vd
	}
}

// LoadState reports the current state of h. Unknown handles are NotLoaded.
func (s *Server) LoadState(h Handle) LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[h.id]; ok {
		return e.state
	}
	return NotLoaded
}

// Err returns the failure reason for a Failed handle.
func (s *Server) Err(h Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[h.id]
	if !ok {
		return ErrUnknownHandle
	}
	return e.err
}

// Image returns the decoded image of a loaded handle. Callers must not modify it.
func (s *Server) Image(h Handle) (*texture.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[h.id]
	if !ok || e.image == nil {
		return nil, false
	}
	return e.image, true
}

// Mutate runs fn on the decoded image of h under the server lock and marks it changed. Reloads
// from Watch are applied either before or after fn, never during it. An error from fn is returned
// as is; the generation is bumped regardless since fn may have partially modified the image.
func (s *Server) Mutate(h Handle, fn func(img *texture.Image) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h.id]
	if !ok {
		return ErrUnknownHandle
	}
	if e.image == nil {
		return fmt.Errorf("%s: %w", h, ErrNotLoaded)
	}
	e.generation++
	return fn(e.image)
}

// Generation increases every time the image behind h is replaced or handed out mutably.
func (s *Server) Generation(h Handle) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[h.id]; ok {
		return e.generation
	}
	return 0
}

// Close stops accepting work and waits for in-flight decodes.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		w.Close()
	}
	s.pool.StopAndWait()
}
