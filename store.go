package dnserver

import "sync"

// Shared serializes access to a mutable value across concurrent callers. The
// wrapped value can only be reached through the scoped-access methods, which
// guarantee the lock is released on every path.
type Shared[T any] struct {
	mu sync.Mutex
	v  T
}

// NewShared returns a guard wrapping the given value.
func NewShared[T any](v T) *Shared[T] {
	return &Shared[T]{v: v}
}

// With calls fn with the wrapped value while holding the lock.
func (s *Shared[T]) With(fn func(v T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.v)
}

// Update replaces the wrapped value with the result of fn, atomically with
// respect to all other accessors.
func (s *Shared[T]) Update(fn func(v T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = fn(s.v)
}

// Replace swaps the wrapped value.
func (s *Shared[T]) Replace(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}
