package bus

import "sync"

// Subscription is a handle to an event listener or tap
type Subscription struct {
	bus   *Bus
	event string
	id    uint64
	isTap bool

	once sync.Once
}

// Event returns the subscribed event name, empty for taps
func (s *Subscription) Event() string {
	return s.event
}

// Unsubscribe removes the listener. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.isTap {
			s.bus.untap(s.id)
			return
		}
		s.bus.off(s.event, s.id)
	})
}
