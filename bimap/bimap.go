// Package bimap provides a strict one-to-one map that can be looked up from
// either side.
package bimap

import (
	"errors"
	"iter"
)

var (
	ErrDuplicate = errors.New("bimap: key or value already present")
	ErrNotFound  = errors.New("bimap: not found")
)

// Map holds K<->V pairs. Every key maps to exactly one value and every value
// back to exactly one key. Map is not safe for concurrent use.
type Map[K, V comparable] struct {
	forward map[K]V
	reverse map[V]K
}

// New returns an empty Map.
func New[K, V comparable]() *Map[K, V] {
	return &Map[K, V]{
		forward: make(map[K]V),
		reverse: make(map[V]K),
	}
}

// Add inserts the pair. It fails with ErrDuplicate, leaving the map unchanged,
// when either k or v is already present.
func (m *Map[K, V]) Add(k K, v V) error {
	if !m.TryAdd(k, v) {
		return ErrDuplicate
	}
	return nil
}

// TryAdd is Add reporting success as a bool.
func (m *Map[K, V]) TryAdd(k K, v V) bool {
	if _, ok := m.forward[k]; ok {
		return false
	}
	if _, ok := m.reverse[v]; ok {
		return false
	}
	m.forward[k] = v
	m.reverse[v] = k
	return true
}

// GetByKey returns the value paired with k.
func (m *Map[K, V]) GetByKey(k K) (V, error) {
	v, ok := m.forward[k]
	if !ok {
		return v, ErrNotFound
	}
	return v, nil
}

// GetByValue returns the key paired with v.
func (m *Map[K, V]) GetByValue(v V) (K, error) {
	k, ok := m.reverse[v]
	if !ok {
		return k, ErrNotFound
	}
	return k, nil
}

// Lookup is GetByKey without the error.
func (m *Map[K, V]) Lookup(k K) (V, bool) {
	v, ok := m.forward[k]
	return v, ok
}

// RemoveKey drops k and its value. It reports whether k was present.
func (m *Map[K, V]) RemoveKey(k K) bool {
	v, ok := m.forward[k]
	if !ok {
		return false
	}
	delete(m.forward, k)
	delete(m.reverse, v)
	return true
}

// RemoveValue drops v and its key. It reports whether v was present.
func (m *Map[K, V]) RemoveValue(v V) bool {
	k, ok := m.reverse[v]
	if !ok {
		return false
	}
	delete(m.forward, k)
	delete(m.reverse, v)
	return true
}

func (m *Map[K, V]) ContainsKey(k K) bool {
	_, ok := m.forward[k]
	return ok
}

func (m *Map[K, V]) ContainsValue(v V) bool {
	_, ok := m.reverse[v]
	return ok
}

// Len returns the number of pairs.
func (m *Map[K, V]) Len() int {
	return len(m.forward)
}

// Clear removes every pair.
func (m *Map[K, V]) Clear() {
	clear(m.forward)
	clear(m.reverse)
}

// All iterates over the pairs in unspecified order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, v := range m.forward {
			if !yield(k, v) {
				return
			}
		}
	}
}
