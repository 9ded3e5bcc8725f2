// Package orderedmap provides a small insertion-ordered map that
// rejects duplicate keys. The parser uses it to detect attributes that
// resolve to the same expanded name while preserving document order.
package orderedmap

import (
	"errors"
	"iter"
)

var ErrDuplicateEntry = errors.New("duplicate entry")

type Map[K comparable, V any] struct {
	keys   []K
	values []V
	index  map[K]int
}

func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		index: make(map[K]int),
	}
}

func (m *Map[K, V]) Set(key K, value V) error {
	if _, exists := m.index[key]; exists {
		return ErrDuplicateEntry
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return nil
}

func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Range yields entries in insertion order.
func (m *Map[K, V]) Range() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.values[i]) {
				break
			}
		}
	}
}
