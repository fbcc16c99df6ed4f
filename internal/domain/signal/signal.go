package signal

import "sync"

// Signal holds a value and notifies subscribers synchronously on change
type Signal[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	subs    subscribers[T]
}

// New creates a signal with an initial value
func New[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// Get returns the current value
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version increments on every Set
func (s *Signal[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set stores v and notifies subscribers after the write is visible
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.version++
	s.mu.Unlock()

	s.subs.notify(v)
}

// Update applies fn to the current value atomically and notifies with the result
func (s *Signal[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	next := fn(s.value)
	s.value = next
	s.version++
	s.mu.Unlock()

	s.subs.notify(next)
	return next
}

// UpdateIf applies fn under the write lock. When fn reports false the
// value is left as is and nobody is notified.
func (s *Signal[T]) UpdateIf(fn func(T) (T, bool)) (T, bool) {
	s.mu.Lock()
	next, changed := fn(s.value)
	if !changed {
		cur := s.value
		s.mu.Unlock()
		return cur, false
	}
	s.value = next
	s.version++
	s.mu.Unlock()

	s.subs.notify(next)
	return next, true
}

// Subscribe registers fn and returns a function that removes it
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	return s.subs.add(fn)
}

// subscribers is a copy-on-notify listener list. Listeners added while a
// notification is running only see later notifications.
type subscribers[T any] struct {
	mu   sync.Mutex
	seq  uint64
	list []listener[T]
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.list = append(s.list, listener[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.list {
				if l.id == id {
					s.list = append(s.list[:i:i], s.list[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *subscribers[T]) snapshot() []listener[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]listener[T](nil), s.list...)
}

func (s *subscribers[T]) notify(v T) {
	for _, l := range s.snapshot() {
		l.fn(v)
	}
}
