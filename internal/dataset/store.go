package dataset

import (
	"fmt"
	"sort"
	"sync"
)

// Store is a concurrency-safe, in-memory registry of named frames. Pipeline
// steps share datasets by name through a single store instance instead of
// passing table data through step outputs.
type Store struct {
	mu     sync.RWMutex
	frames map[string]*Frame
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{frames: make(map[string]*Frame)}
}

// Put registers a frame under a name, replacing any previous frame with the
// same name.
func (s *Store) Put(name string, f *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[name] = f
}

// Get returns the named frame or an error if it was never stored.
func (s *Store) Get(name string) (*Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.frames[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q not found in store", name)
	}
	return f, nil
}

// Names returns the stored dataset names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.frames))
	for name := range s.frames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
