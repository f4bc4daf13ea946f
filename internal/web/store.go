package web

import (
	"errors"
	"sync"

	"confcal/internal/grid"
)

// ErrNotReady is returned while no program has been loaded yet.
var ErrNotReady = errors.New("web: calendar not loaded yet")

// Store holds the live calendar instance shared between the refresh loop and
// the HTTP handlers. Calendar operations mutate navigation and autofit state,
// so all access goes through the mutex.
type Store struct {
	mu  sync.Mutex
	cal *grid.Calendar
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a freshly built calendar instance.
func (s *Store) Replace(cal *grid.Calendar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cal = cal
}

// With runs fn against the live calendar under the store lock. It returns
// ErrNotReady before the first successful load.
func (s *Store) With(fn func(*grid.Calendar) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cal == nil {
		return ErrNotReady
	}
	return fn(s.cal)
}
