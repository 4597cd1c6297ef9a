// Package memory stores artifacts in-memory for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// Store keeps artifact contents in a map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory artifact store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Upload replaces the artifact under name.
func (s *Store) Upload(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append([]byte(nil), data...)
	return nil
}

// Download returns a copy of the artifact contents.
func (s *Store) Download(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	if !ok {
		return nil, pipeline.ErrArtifactNotFound
	}
	return append([]byte(nil), data...), nil
}
