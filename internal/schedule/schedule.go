// Package schedule runs named per-frame systems in a declared order.
package schedule

import (
	"errors"
	"fmt"

	"Skyview/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrDuplicateSystem = errors.New("duplicate system")
	ErrUnknownSystem   = errors.New("unknown system")
	ErrCycle           = errors.New("system ordering cycle")
)

// System is one unit of per-frame work.
type System func(t Time) error

type entry struct {
	name   string
	run    System
	after  []string
	before []string
}

type Option func(*entry)

// After orders the system behind the named systems.
func After(names ...string) Option {
	return func(e *entry) { e.after = append(e.after, names...) }
}

// Before orders the system ahead of the named systems.
func Before(names ...string) Option {
	return func(e *entry) { e.before = append(e.before, names...) }
}

// Schedule holds systems and runs them in dependency order. Systems without constraints
// between them run in the order they were added.
type Schedule struct {
	Name    string
	entries []*entry
	byName  map[string]*entry
	order   []*entry
	dirty   bool
}

func New(name string) *Schedule {
	return &Schedule{Name: name, byName: make(map[string]*entry)}
}

func (s *Schedule) Add(name string, run System, opts ...Option) error {
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateSystem, name, s.Name)
	}
	e := &entry{name: name, run: run}
	for _, opt := range opts {
		opt(e)
	}
	s.entries = append(s.entries, e)
	s.byName[name] = e
	s.dirty = true
	return nil
}

// MustAdd is Add for systems registered at program setup, where a clash is a programming error.
func (s *Schedule) MustAdd(name string, run System, opts ...Option) {
	if err := s.Add(name, run, opts...); err != nil {
		panic(err)
	}
}

// Order returns the system names in the order Run executes them.
func (s *Schedule) Order() ([]string, error) {
	if err := s.build(); err != nil {
		return nil, err
	}
	names := make([]string, len(s.order))
	for i, e := range s.order {
		names[i] = e.name
	}
	return names, nil
}

func (s *Schedule) build() error {
	if !s.dirty {
		return nil
	}

	// edges[a] lists systems that must run after a
	edges := make(map[*entry][]*entry, len(s.entries))
	indegree := make(map[*entry]int, len(s.entries))
	for _, e := range s.entries {
		for _, name := range e.after {
			dep, ok := s.byName[name]
			if !ok {
				return fmt.Errorf("%w: %s runs after %s", ErrUnknownSystem, e.name, name)
			}
			edges[dep] = append(edges[dep], e)
			indegree[e]++
		}
		for _, name := range e.before {
			next, ok := s.byName[name]
			if !ok {
				return fmt.Errorf("%w: %s runs before %s", ErrUnknownSystem, e.name, name)
			}
			edges[e] = append(edges[e], next)
			indegree[next]++
		}
	}

	order := make([]*entry, 0, len(s.entries))
	done := make(map[*entry]bool, len(s.entries))
	for len(order) < len(s.entries) {
		progressed := false
		// lowest insertion index among ready systems keeps the order stable
		for _, e := range s.entries {
			if done[e] || indegree[e] > 0 {
				continue
			}
			done[e] = true
			order = append(order, e)
			for _, next := range edges[e] {
				indegree[next]--
			}
			progressed = true
			break
		}
		if !progressed {
			var stuck []string
			for _, e := range s.entries {
				if !done[e] {
					stuck = append(stuck, e.name)
				}
			}
			return fmt.Errorf("%w in %s: %v", ErrCycle, s.Name, stuck)
		}
	}

	s.order = order
	s.dirty = false
	logger.Log.Debug("Schedule built", zap.String("schedule", s.Name), zap.Int("systems", len(order)))
	return nil
}

// Run executes every system once. It stops at the first failing system.
func (s *Schedule) Run(t Time) error {
	if err := s.build(); err != nil {
		return err
	}
	for _, e := range s.order {
		if err := e.run(t); err != nil {
			return fmt.Errorf("%s/%s: %w", s.Name, e.name, err)
		}
	}
	return nil
}
