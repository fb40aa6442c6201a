package common

import "sync"

// Set is a mutex-guarded set safe for concurrent use.
type Set[T comparable] struct {
	mu       sync.Mutex
	elements map[T]struct{}
}

func NewSet[T comparable]() *Set[T] {
	return &Set[T]{
		elements: make(map[T]struct{}),
	}
}

func (s *Set[T]) Add(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[value] = struct{}{}
}

// TryAdd inserts value and reports whether it was absent.
func (s *Set[T]) TryAdd(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.elements[value]; found {
		return false
	}
	s.elements[value] = struct{}{}
	return true
}

func (s *Set[T]) Remove(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, value)
}

func (s *Set[T]) Contains(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.elements[value]
	return found
}

func (s *Set[T]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elements)
}

func (s *Set[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]T, 0, len(s.elements))
	for key := range s.elements {
		keys = append(keys, key)
	}
	return keys
}
