// Package dedup implements the seen store and the new-posting partition.
package dedup

import (
	"context"
	"sync"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// Store is the in-memory seen set for one run. It is exclusively owned by the
// running process; the state bridge restores it at start and flushes it at
// the end. Insertion order is preserved for auditability only.
type Store struct {
	mu      sync.RWMutex
	members map[string]struct{}
	order   []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{members: make(map[string]struct{})}
}

// FromIDs builds a store from a restored id list, dropping duplicates and
// blank lines.
func FromIDs(ids []string) *Store {
	s := NewStore()
	for _, id := range ids {
		s.insert(id)
	}
	return s
}

// Seen reports whether id has already been committed.
func (s *Store) Seen(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[id]
	return ok, nil
}

// Commit inserts a batch of ids under a single lock acquisition so a run's
// batch lands atomically. Re-committing a present id is a no-op.
func (s *Store) Commit(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.insertLocked(id)
	}
	return nil
}

// Len returns the member count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Snapshot returns the member ids in insertion order.
func (s *Store) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store) insert(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(id)
}

func (s *Store) insertLocked(id string) {
	if id == "" {
		return
	}
	if _, ok := s.members[id]; ok {
		return
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
}

// FilterNew is a pure read-only partition: postings whose id is already in
// the store are dropped, relative order of survivors is preserved.
func FilterNew(ctx context.Context, store pipeline.SeenStore, postings []pipeline.JobPosting) ([]pipeline.JobPosting, error) {
	fresh := make([]pipeline.JobPosting, 0, len(postings))
	for _, p := range postings {
		seen, err := store.Seen(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, p)
		}
	}
	return fresh, nil
}
