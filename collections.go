package edn

import (
	"iter"
	"slices"
)

// A Set is an unordered collection of unique values written #{a b c}.
// It remembers insertion order, which is the order used for printing and
// iteration.
type Set struct {
	elems []Value
	index map[uint64][]int
}

// NewSet returns a set containing elems. Duplicate elements are dropped.
func NewSet(elems ...Value) *Set {
	s := &Set{index: map[uint64][]int{}}
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// Add adds v to the set. It returns false if v was already present.
func (s *Set) Add(v Value) bool {
	if s.index == nil {
		s.index = map[uint64][]int{}
	}
	h := Hash(v)
	for _, i := range s.index[h] {
		if Equal(s.elems[i], v) {
			return false
		}
	}
	s.index[h] = append(s.index[h], len(s.elems))
	s.elems = append(s.elems, v)
	return true
}

// Contains reports whether v is in the set.
func (s *Set) Contains(v Value) bool {
	for _, i := range s.index[Hash(v)] {
		if Equal(s.elems[i], v) {
			return true
		}
	}
	return false
}

// Len returns the number of elements.
func (s *Set) Len() int {
	return len(s.elems)
}

// All iterates over the elements in insertion order.
func (s *Set) All() iter.Seq[Value] {
	return slices.Values(s.elems)
}

func (s *Set) sorted() []Value {
	return slices.SortedFunc(s.All(), Compare)
}

// A Map is a collection of key value pairs written {k v, k v}.
// It remembers insertion order, which is the order used for printing and
// iteration.
type Map struct {
	keys   []Key
	values []Value
	index  map[Key]int
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{index: map[Key]int{}}
}

// Set associates v with k. If k is already present its value is replaced
// and its position is kept. Set returns false in that case.
func (m *Map) Set(k Key, v Value) bool {
	if m.index == nil {
		m.index = map[Key]int{}
	}
	if i, ok := m.index[k]; ok {
		m.values[i] = v
		return false
	}
	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
	return true
}

// Get returns the value for k.
func (m *Map) Get(k Key) (Value, bool) {
	i, ok := m.index[k]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// All iterates over the entries in insertion order.
func (m *Map) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		for i, k := range m.keys {
			if !yield(k, m.values[i]) {
				return
			}
		}
	}
}

// Keys iterates over the keys in insertion order.
func (m *Map) Keys() iter.Seq[Key] {
	return slices.Values(m.keys)
}

// SortedKeys returns the keys ordered by [Key.Compare].
func (m *Map) SortedKeys() []Key {
	return slices.SortedFunc(m.Keys(), Key.Compare)
}
