package signal

import (
	"sort"
	"sync"
)

// Ordered is a keyed collection consumed sorted by an order value, with
// insertion order breaking ties. Replacing an existing key keeps its
// insertion position; deleting and re-adding moves it to the end.
type Ordered[V any] struct {
	mu      sync.RWMutex
	entries map[string]*orderedEntry[V]
	seq     uint64
	orderOf func(V) int
	subs    subscribers[[]V]
}

type orderedEntry[V any] struct {
	key   string
	value V
	seq   uint64
}

// Group is a run of entries sharing a grouping key
type Group[V any] struct {
	Key   string `json:"key"`
	Items []V    `json:"items"`
}

// NewOrdered creates a collection sorted by orderOf
func NewOrdered[V any](orderOf func(V) int) *Ordered[V] {
	return &Ordered[V]{
		entries: make(map[string]*orderedEntry[V]),
		orderOf: orderOf,
	}
}

// Set inserts or replaces key
func (o *Ordered[V]) Set(key string, v V) {
	o.mu.Lock()
	if e, ok := o.entries[key]; ok {
		e.value = v
	} else {
		o.seq++
		o.entries[key] = &orderedEntry[V]{key: key, value: v, seq: o.seq}
	}
	sorted := o.sortedLocked()
	o.mu.Unlock()

	o.subs.notify(sorted)
}

// Delete removes key, reporting whether it was present
func (o *Ordered[V]) Delete(key string) bool {
	o.mu.Lock()
	if _, ok := o.entries[key]; !ok {
		o.mu.Unlock()
		return false
	}
	delete(o.entries, key)
	sorted := o.sortedLocked()
	o.mu.Unlock()

	o.subs.notify(sorted)
	return true
}

// Get returns the value stored under key
func (o *Ordered[V]) Get(key string) (V, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	e, ok := o.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Len returns the number of entries
func (o *Ordered[V]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.entries)
}

// Sorted returns entries by order ascending, then insertion order
func (o *Ordered[V]) Sorted() []V {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sortedLocked()
}

// Keys returns keys in the same order as Sorted
func (o *Ordered[V]) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	entries := o.sortedEntriesLocked()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// Groups partitions the sorted entries by keyOf. Groups appear in the order
// their first member appears in Sorted.
func (o *Ordered[V]) Groups(keyOf func(V) string) []Group[V] {
	var groups []Group[V]
	index := make(map[string]int)
	for _, v := range o.Sorted() {
		k := keyOf(v)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[V]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, v)
	}
	return groups
}

// Subscribe registers fn to receive the sorted contents after every change
func (o *Ordered[V]) Subscribe(fn func([]V)) func() {
	return o.subs.add(fn)
}

func (o *Ordered[V]) sortedEntriesLocked() []*orderedEntry[V] {
	entries := make([]*orderedEntry[V], 0, len(o.entries))
	for _, e := range o.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		oi, oj := o.orderOf(entries[i].value), o.orderOf(entries[j].value)
		if oi != oj {
			return oi < oj
		}
		return entries[i].seq < entries[j].seq
	})
	return entries
}

func (o *Ordered[V]) sortedLocked() []V {
	entries := o.sortedEntriesLocked()
	out := make([]V, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}
