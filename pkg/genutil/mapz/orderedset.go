// Package mapz contains generic map and set containers shared by the
// parsing and planning packages.
package mapz

// OrderedSet is a set that remembers the order in which values were first
// inserted. Duplicate inserts are ignored and do not move a value.
//
// The zero value is not usable; construct via NewOrderedSet.
type OrderedSet[T comparable] struct {
	present map[T]struct{}
	order   []T
}

// NewOrderedSet constructs an empty OrderedSet.
func NewOrderedSet[T comparable](values ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{present: make(map[T]struct{}, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts the value, returning true if it was not already present.
func (s *OrderedSet[T]) Add(value T) bool {
	if _, ok := s.present[value]; ok {
		return false
	}
	s.present[value] = struct{}{}
	s.order = append(s.order, value)
	return true
}

// Has returns true if the value is in the set.
func (s *OrderedSet[T]) Has(value T) bool {
	_, ok := s.present[value]
	return ok
}

// Values returns the values in first-insertion order. The returned slice is
// a copy and may be retained by the caller.
func (s *OrderedSet[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of values in the set.
func (s *OrderedSet[T]) Len() int { return len(s.order) }

// IsEmpty returns true if the set holds no values.
func (s *OrderedSet[T]) IsEmpty() bool { return len(s.order) == 0 }

// Copy returns a new set with the same values and order.
func (s *OrderedSet[T]) Copy() *OrderedSet[T] {
	return NewOrderedSet(s.order...)
}
