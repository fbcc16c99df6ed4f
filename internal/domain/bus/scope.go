package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Scope is a bus view that remembers what it created. Plugins get one per
// instance so stop and dispose can sweep their listeners and services.
type Scope struct {
	bus    *Bus
	owner  string
	token  uint64
	logger *zap.Logger

	mu       sync.Mutex
	subs     []*Subscription
	services map[string]struct{}
}

// Owner returns the owner name the scope was created for
func (s *Scope) Owner() string {
	return s.owner
}

// On subscribes h to event on behalf of the owner
func (s *Scope) On(event string, h Handler) *Subscription {
	sub := s.bus.on(event, h)
	s.track(sub)
	return sub
}

// Tap subscribes fn to every event on behalf of the owner
func (s *Scope) Tap(fn TapHandler) *Subscription {
	sub := s.bus.tap(fn)
	s.track(sub)
	return sub
}

// Emit forwards to the bus
func (s *Scope) Emit(event string, payload interface{}) int {
	return s.bus.Emit(event, payload)
}

// Provide installs handler for name on behalf of the owner
func (s *Scope) Provide(name string, handler ServiceHandler) {
	s.bus.provide(name, s.token, handler)

	s.mu.Lock()
	if s.services == nil {
		s.services = make(map[string]struct{})
	}
	s.services[name] = struct{}{}
	s.mu.Unlock()
}

// Call forwards to the bus
func (s *Scope) Call(ctx context.Context, name string, input interface{}) (interface{}, error) {
	return s.bus.Call(ctx, name, input)
}

// CallAsync forwards to the bus
func (s *Scope) CallAsync(ctx context.Context, name string, input interface{}) <-chan Reply {
	return s.bus.CallAsync(ctx, name, input)
}

// Close removes every listener the scope added and every service it still
// provides. Services since replaced by another provider are left alone.
// The scope stays usable afterwards.
func (s *Scope) Close() {
	s.mu.Lock()
	subs := s.subs
	services := s.services
	s.subs = nil
	s.services = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	withdrawn := 0
	for name := range services {
		if s.bus.withdrawOwned(name, s.token) {
			withdrawn++
		}
	}

	if len(subs) > 0 || withdrawn > 0 {
		s.logger.Debug("bus scope swept",
			zap.Int("listeners", len(subs)),
			zap.Int("services", withdrawn))
	}
}

func (s *Scope) track(sub *Subscription) {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}
