// Package entity holds typed arena stores: each simulation aggregate lives in
// its own Store keyed by a monotonically allocated ID. Iteration is always in
// ascending ID order, which is creation order.
package entity

import "sort"

// ID identifies an entity within one store; 0 is the null entity.
type ID uint64

type Store[T any] struct {
	last  ID
	items map[ID]*T
	ids   []ID // ascending
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{items: map[ID]*T{}}
}

// Create allocates the next ID for v.
func (s *Store[T]) Create(v T) (ID, *T) {
	s.lazyInit()
	s.last++
	id := s.last
	p := &v
	s.items[id] = p
	s.ids = append(s.ids, id)
	return id, p
}

// Insert places v under a known id (snapshot import). Later Creates allocate
// above the highest id seen.
func (s *Store[T]) Insert(id ID, v T) *T {
	s.lazyInit()
	p := &v
	if _, ok := s.items[id]; !ok {
		i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
		s.ids = append(s.ids, 0)
		copy(s.ids[i+1:], s.ids[i:])
		s.ids[i] = id
	}
	s.items[id] = p
	if id > s.last {
		s.last = id
	}
	return p
}

func (s *Store[T]) Get(id ID) (*T, bool) {
	p, ok := s.items[id]
	return p, ok
}

func (s *Store[T]) Has(id ID) bool {
	_, ok := s.items[id]
	return ok
}

func (s *Store[T]) Delete(id ID) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
	}
	return true
}

func (s *Store[T]) Len() int { return len(s.ids) }

// IDs returns a copy of the live ids in ascending order.
func (s *Store[T]) IDs() []ID {
	return append([]ID(nil), s.ids...)
}

// Each visits entities in ascending id order until fn returns false. Entities
// deleted by fn before they are reached are skipped.
func (s *Store[T]) Each(fn func(ID, *T) bool) {
	for _, id := range s.IDs() {
		p, ok := s.items[id]
		if !ok {
			continue
		}
		if !fn(id, p) {
			return
		}
	}
}

// Filter returns the ids whose entity satisfies pred, ascending.
func (s *Store[T]) Filter(pred func(*T) bool) []ID {
	var out []ID
	for _, id := range s.ids {
		if pred(s.items[id]) {
			out = append(out, id)
		}
	}
	return out
}

// Last is the highest id ever allocated; snapshots persist it so ids are
// never reused after a resume.
func (s *Store[T]) Last() ID { return s.last }

func (s *Store[T]) SetLast(id ID) {
	if id > s.last {
		s.last = id
	}
}

func (s *Store[T]) lazyInit() {
	if s.items == nil {
		s.items = map[ID]*T{}
	}
}
