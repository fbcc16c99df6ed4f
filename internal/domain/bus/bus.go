package bus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Handler receives an emitted event payload
type Handler func(payload interface{})

// TapHandler receives every emitted event
type TapHandler func(event string, payload interface{})

// ServiceHandler answers a service call
type ServiceHandler func(ctx context.Context, input interface{}) (interface{}, error)

// Reply is the single value delivered by CallAsync
type Reply struct {
	Output interface{}
	Err    error
}

type listener struct {
	id uint64
	fn Handler
}

type tap struct {
	id uint64
	fn TapHandler
}

type service struct {
	owner   uint64
	handler ServiceHandler
}

// Bus carries fire-and-forget events and at-most-one-handler services.
//
// Listener slices are copy-on-write: Emit reads the current slice and
// delivers to it, so a handler subscribed during delivery only sees later
// emissions.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]listener // Protected by mu, never mutated in place
	taps      []tap                 // Protected by mu, never mutated in place
	services  map[string]service    // Protected by mu
	nextID    uint64                // Protected by mu

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Stats summarises bus state
type Stats struct {
	Events    map[string]int `json:"events"`
	Services  []string       `json:"services"`
	Taps      int            `json:"taps"`
	Listeners int            `json:"listeners"`
}

// New creates an empty bus
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		listeners: make(map[string][]listener),
		services:  make(map[string]service),
		logger:    logger.Named("bus"),
	}
}

// WithMetrics adds metrics tracking to the bus
func (b *Bus) WithMetrics(metrics *monitoring.Metrics) *Bus {
	b.metrics = metrics
	return b
}

// On subscribes h to event
func (b *Bus) On(event string, h Handler) *Subscription {
	return b.on(event, h)
}

// Tap subscribes fn to every event. Taps run after the event's listeners.
func (b *Bus) Tap(fn TapHandler) *Subscription {
	return b.tap(fn)
}

// Emit delivers payload synchronously to the listeners of event in
// subscription order, then to taps. It returns the number of handlers run.
// A panicking handler is logged and the remaining handlers still run.
func (b *Bus) Emit(event string, payload interface{}) int {
	b.mu.RLock()
	listeners := b.listeners[event]
	taps := b.taps
	b.mu.RUnlock()

	b.metrics.RecordEvent(event)

	for _, l := range listeners {
		b.deliver(event, func() { l.fn(payload) })
	}
	for _, t := range taps {
		b.deliver(event, func() { t.fn(event, payload) })
	}
	return len(listeners) + len(taps)
}

// Provide installs handler for name. An existing handler is replaced and a
// warning is logged.
func (b *Bus) Provide(name string, handler ServiceHandler) {
	b.provide(name, 0, handler)
}

// Withdraw removes the handler for name
func (b *Bus) Withdraw(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.services[name]; !ok {
		return false
	}
	delete(b.services, name)
	return true
}

// HasService reports whether a handler is provided for name
func (b *Bus) HasService(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.services[name]
	return ok
}

// Call invokes the handler for name. A missing handler yields
// *ServiceNotFoundError; a panicking handler yields an error.
func (b *Bus) Call(ctx context.Context, name string, input interface{}) (out interface{}, err error) {
	b.mu.RLock()
	svc, ok := b.services[name]
	b.mu.RUnlock()

	if !ok {
		b.metrics.RecordServiceCall(name, "not_found", 0)
		return nil, &ServiceNotFoundError{Name: name}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("service handler panicked",
				zap.String("service", name),
				zap.Any("panic", r))
			out = nil
			err = fmt.Errorf("service %q panicked: %v", name, r)
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		b.metrics.RecordServiceCall(name, status, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return svc.handler(ctx, input)
}

// CallAsync runs Call on a new goroutine. The returned channel yields
// exactly one Reply and is then closed.
func (b *Bus) CallAsync(ctx context.Context, name string, input interface{}) <-chan Reply {
	ch := make(chan Reply, 1)
	go func() {
		defer close(ch)
		out, err := b.Call(ctx, name, input)
		ch <- Reply{Output: out, Err: err}
	}()
	return ch
}

// Scope returns an ownership-tracking view of the bus. Closing the scope
// removes everything it created.
func (b *Bus) Scope(owner string) *Scope {
	b.mu.Lock()
	b.nextID++
	token := b.nextID
	b.mu.Unlock()

	return &Scope{
		bus:    b,
		owner:  owner,
		token:  token,
		logger: b.logger.With(zap.String("owner", owner)),
	}
}

// Stats returns listener counts per event and provided service names
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := Stats{
		Events:   make(map[string]int, len(b.listeners)),
		Services: make([]string, 0, len(b.services)),
		Taps:     len(b.taps),
	}
	for event, ls := range b.listeners {
		stats.Events[event] = len(ls)
		stats.Listeners += len(ls)
	}
	for name := range b.services {
		stats.Services = append(stats.Services, name)
	}
	sort.Strings(stats.Services)
	return stats
}

func (b *Bus) deliver(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.RecordHandlerPanic(event)
			b.logger.Error("event handler panicked",
				zap.String("event", event),
				zap.Any("panic", r))
		}
	}()
	fn()
}

func (b *Bus) on(event string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	l := listener{id: b.nextID, fn: h}

	current := b.listeners[event]
	next := make([]listener, len(current), len(current)+1)
	copy(next, current)
	b.listeners[event] = append(next, l)

	return &Subscription{bus: b, event: event, id: l.id}
}

func (b *Bus) tap(fn TapHandler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	t := tap{id: b.nextID, fn: fn}

	next := make([]tap, len(b.taps), len(b.taps)+1)
	copy(next, b.taps)
	b.taps = append(next, t)

	return &Subscription{bus: b, id: t.id, isTap: true}
}

func (b *Bus) provide(name string, owner uint64, handler ServiceHandler) {
	b.mu.Lock()
	_, replaced := b.services[name]
	b.services[name] = service{owner: owner, handler: handler}
	b.mu.Unlock()

	if replaced {
		b.logger.Warn("service handler replaced", zap.String("service", name))
	}
}

func (b *Bus) off(event string, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[event]
	for i, l := range current {
		if l.id != id {
			continue
		}
		next := make([]listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(b.listeners, event)
		} else {
			b.listeners[event] = next
		}
		return true
	}
	return false
}

func (b *Bus) untap(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, t := range b.taps {
		if t.id != id {
			continue
		}
		next := make([]tap, 0, len(b.taps)-1)
		next = append(next, b.taps[:i]...)
		b.taps = append(next, b.taps[i+1:]...)
		return true
	}
	return false
}

// withdrawOwned removes name only if owner still provides it
func (b *Bus) withdrawOwned(name string, owner uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	svc, ok := b.services[name]
	if !ok || svc.owner != owner {
		return false
	}
	delete(b.services, name)
	return true
}
