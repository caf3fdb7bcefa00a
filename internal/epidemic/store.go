package epidemic

import (
	"fmt"
	"sync"
)

// Store owns the current generation. Readers such as a live view may call
// Current concurrently with the driver committing new generations.
type Store struct {
	mu      sync.RWMutex
	current *Grid
}

func NewStore(g *Grid) *Store {
	return &Store{current: g}
}

func (s *Store) Current() *Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Commit replaces the whole grid with next. The grid must have the same side
// and be exactly one generation ahead; otherwise the store is left untouched.
func (s *Store) Commit(next *Grid) error {
	if next == nil {
		return fmt.Errorf("%w: nil grid", ErrGridMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if next.size != s.current.size {
		return fmt.Errorf("%w: size %d, want %d", ErrGridMismatch, next.size, s.current.size)
	}
	if next.generation != s.current.generation+1 {
		return fmt.Errorf("%w: generation %d, want %d", ErrGridMismatch, next.generation, s.current.generation+1)
	}
	s.current = next
	return nil
}

// Reset replaces the grid unconditionally, e.g. when a live view restarts.
func (s *Store) Reset(g *Grid) {
	s.mu.Lock()
	s.current = g
	s.mu.Unlock()
}
