package cache

import (
	"reflect"
	"sync"
)

// store is one entity kind's primary map. Values are published behind pointers and never
// mutated afterwards, so a handle returned to a reader stays valid after later writes.
type store[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*V
}

func newStore[K comparable, V any]() *store[K, V] {
	return &store[K, V]{items: make(map[K]*V)}
}

func (s *store[K, V]) get(key K) (*V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok
}

// upsert installs value under key unless an equal value is already there. It returns the
// handle now stored and whether the map changed.
func (s *store[K, V]) upsert(key K, value V) (*V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.items[key]; ok && reflect.DeepEqual(*cur, value) {
		return cur, false
	}
	s.items[key] = &value
	return &value, true
}

// update applies fn to a copy of the stored value and publishes the result if it differs.
// It reports whether key was present.
func (s *store[K, V]) update(key K, fn func(*V)) (*V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[key]
	if !ok {
		return nil, false
	}
	next := *cur
	fn(&next)
	if reflect.DeepEqual(*cur, next) {
		return cur, true
	}
	s.items[key] = &next
	return &next, true
}

func (s *store[K, V]) remove(key K) (*V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return v, ok
}

func (s *store[K, V]) removeAll(keys []K) {
	if len(keys) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.items, k)
	}
}

// removeFunc deletes every entry matching pred and returns the removed keys.
func (s *store[K, V]) removeFunc(pred func(K, *V) bool) []K {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []K
	for k, v := range s.items {
		if pred(k, v) {
			delete(s.items, k)
			removed = append(removed, k)
		}
	}
	return removed
}

func (s *store[K, V]) filter(pred func(K, *V) bool) []*V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*V
	for k, v := range s.items {
		if pred(k, v) {
			out = append(out, v)
		}
	}
	return out
}

func (s *store[K, V]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *store[K, V]) clear() {
	s.mu.Lock()
	s.items = make(map[K]*V)
	s.mu.Unlock()
}
