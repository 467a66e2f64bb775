package assets

import (
	"context"
	"errors"
	"path"
	"path/filepath"

	"Skyview/internal/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var ErrWatchUnavailable = errors.New("asset watching needs a directory root")

// Watch re-decodes loaded assets when their files change on disk. It blocks until ctx is done
// or the server is closed.
func (s *Server) Watch(ctx context.Context) error {
	if s.root == "" {
		return ErrWatchUnavailable
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		w.Close()
		return ErrClosed
	}
	s.watcher = w
	for p := range s.byPath {
		s.watchLocked(p)
	}
	s.mu.Unlock()

	logger.Log.Info("Watching assets for changes", zap.String("root", s.root))

	defer func() {
		s.mu.Lock()
		if s.watcher == w {
			s.watcher = nil
			w.Close()
		}
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				s.reload(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Log.Warn("Asset watcher error", zap.Error(err))
		}
	}
}

// watchLocked adds the directory holding asset p to the watcher. s.mu must be held.
func (s *Server) watchLocked(p string) {
	if s.watcher == nil || s.root == "" {
		return
	}
	dir := path.Dir(p)
	if s.watched[dir] {
		return
	}
	osDir := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := s.watcher.Add(osDir); err != nil {
		logger.Log.Warn("Could not watch asset directory", zap.String("dir", osDir), zap.Error(err))
		return
	}
	s.watched[dir] = true
}

func (s *Server) reload(osPath string) {
	rel, err := filepath.Rel(s.root, osPath)
	if err != nil {
		return
	}
	p := path.Clean(filepath.ToSlash(rel))

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPath[p]
	if !ok || s.closed {
		return
	}
	if e := s.entries[id]; e.state == Loaded {
		s.submit(id, p, true)
	}
}
