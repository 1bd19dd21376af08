package cache

import (
	"sync"

	"github.com/luciancaetano/shardnet/model"
)

// index maps an owner (usually a guild) to the set of keys it owns in some primary store.
type index[K comparable] struct {
	mu   sync.RWMutex
	sets map[model.ID]map[K]struct{}
}

func newIndex[K comparable]() *index[K] {
	return &index[K]{sets: make(map[model.ID]map[K]struct{})}
}

func (i *index[K]) add(owner model.ID, keys ...K) {
	if len(keys) == 0 {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	set, ok := i.sets[owner]
	if !ok {
		set = make(map[K]struct{}, len(keys))
		i.sets[owner] = set
	}
	for _, k := range keys {
		set[k] = struct{}{}
	}
}

// remove drops key from owner's set and reports whether the set is now empty.
func (i *index[K]) remove(owner model.ID, key K) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	set, ok := i.sets[owner]
	if !ok {
		return true
	}
	delete(set, key)
	if len(set) == 0 {
		delete(i.sets, owner)
		return true
	}
	return false
}

// take removes owner's whole set and returns its keys.
func (i *index[K]) take(owner model.ID) []K {
	i.mu.Lock()
	set, ok := i.sets[owner]
	delete(i.sets, owner)
	i.mu.Unlock()

	if !ok {
		return nil
	}
	keys := make([]K, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}

func (i *index[K]) list(owner model.ID) []K {
	i.mu.RLock()
	defer i.mu.RUnlock()

	set := i.sets[owner]
	keys := make([]K, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}

func (i *index[K]) has(owner model.ID, key K) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()

	_, ok := i.sets[owner][key]
	return ok
}

func (i *index[K]) owners() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.sets)
}

func (i *index[K]) clear() {
	i.mu.Lock()
	i.sets = make(map[model.ID]map[K]struct{})
	i.mu.Unlock()
}
