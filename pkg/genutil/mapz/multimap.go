package mapz

// MultiMap is a map from keys to ordered sets of values. Keys iterate in
// first-insertion order and duplicate (key, value) pairs are collapsed.
type MultiMap[K comparable, V comparable] struct {
	items map[K]*OrderedSet[V]
	keys  []K
}

// NewMultiMap initializes an empty MultiMap.
func NewMultiMap[K comparable, V comparable]() *MultiMap[K, V] {
	return &MultiMap[K, V]{items: map[K]*OrderedSet[V]{}}
}

// Add inserts the value under the key, ignoring duplicates.
func (mm *MultiMap[K, V]) Add(key K, value V) {
	set, ok := mm.items[key]
	if !ok {
		set = NewOrderedSet[V]()
		mm.items[key] = set
		mm.keys = append(mm.keys, key)
	}
	set.Add(value)
}

// Has returns true if the key has at least one value.
func (mm *MultiMap[K, V]) Has(key K) bool {
	_, ok := mm.items[key]
	return ok
}

// Get returns the values for the key in insertion order and whether the key
// existed.
func (mm *MultiMap[K, V]) Get(key K) ([]V, bool) {
	set, ok := mm.items[key]
	if !ok {
		return nil, false
	}
	return set.Values(), true
}

// Keys returns the keys in first-insertion order.
func (mm *MultiMap[K, V]) Keys() []K {
	out := make([]K, len(mm.keys))
	copy(out, mm.keys)
	return out
}

// Len returns the number of keys present.
func (mm *MultiMap[K, V]) Len() int { return len(mm.keys) }

// IsEmpty returns true if the map has no keys.
func (mm *MultiMap[K, V]) IsEmpty() bool { return len(mm.keys) == 0 }
