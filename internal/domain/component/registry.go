package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

// ChangeType describes a registry mutation
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeReplaced ChangeType = "replaced"
	ChangeRemoved  ChangeType = "removed"
)

// Change is delivered to subscribers after every mutation
type Change struct {
	Type         ChangeType         `json:"type"`
	Registration types.Registration `json:"registration"`
}

// RegisterOption tweaks a single Register call
type RegisterOption func(*registerOptions)

type registerOptions struct {
	overwrite bool
}

// WithOverwrite lets Register replace an existing id of the same kind
func WithOverwrite() RegisterOption {
	return func(o *registerOptions) { o.overwrite = true }
}

type entry struct {
	reg types.Registration
	seq uint64
}

type subscription struct {
	id uint64
	fn func(Change)
}

// Registry is the process-wide component store. Every mutation updates the
// contract index under the same lock and then notifies subscribers
// synchronously on the calling goroutine.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry // Protected by mu
	index   *ContractIndex    // Protected by mu
	seq     uint64            // Protected by mu

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Stats summarises the registry contents
type Stats struct {
	Total  int                         `json:"total"`
	ByKind map[types.ComponentKind]int `json:"by_kind"`
	Tags   int                         `json:"tags"`
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		entries: make(map[string]*entry),
		index:   NewContractIndex(),
		logger:  logger.Named("registry"),
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Register adds a component. Without WithOverwrite a taken id fails with
// *DuplicateIDError and the existing registration is left untouched.
func (r *Registry) Register(reg types.Registration, opts ...RegisterOption) error {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := reg.Validate(); err != nil {
		r.metrics.RecordReject("invalid")
		return fmt.Errorf("invalid registration: %w", err)
	}
	reg = reg.Normalize().Clone()

	r.mu.Lock()
	change := Change{Type: ChangeAdded, Registration: reg}
	if existing, ok := r.entries[reg.FullID]; ok {
		if !o.overwrite {
			r.mu.Unlock()
			r.metrics.RecordReject("duplicate")
			return &DuplicateIDError{ID: reg.FullID}
		}
		if existing.reg.Kind != reg.Kind {
			r.mu.Unlock()
			r.metrics.RecordReject("kind_change")
			return &KindChangeError{ID: reg.FullID, From: existing.reg.Kind, To: reg.Kind}
		}
		existing.reg = reg
		r.index.Add(reg.FullID, existing.seq, reg.Capabilities())
		change.Type = ChangeReplaced
	} else {
		r.seq++
		r.entries[reg.FullID] = &entry{reg: reg, seq: r.seq}
		r.index.Add(reg.FullID, r.seq, reg.Capabilities())
	}
	count := r.countLocked(reg.Kind)
	r.mu.Unlock()

	r.metrics.RecordRegistration(string(reg.Kind), string(change.Type))
	r.metrics.SetComponents(string(reg.Kind), count)
	r.logger.Debug("component registered",
		zap.String("id", reg.FullID),
		zap.String("kind", string(reg.Kind)),
		zap.String("change", string(change.Type)))

	r.notify(change)
	return nil
}

// Unregister removes fullID. Absent ids are a no-op.
func (r *Registry) Unregister(fullID string) bool {
	r.mu.Lock()
	reg, ok := r.removeLocked(fullID)
	count := 0
	if ok {
		count = r.countLocked(reg.Kind)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	r.metrics.RecordRegistration(string(reg.Kind), string(ChangeRemoved))
	r.metrics.SetComponents(string(reg.Kind), count)
	r.logger.Debug("component unregistered", zap.String("id", fullID))

	r.notify(Change{Type: ChangeRemoved, Registration: reg})
	return true
}

// UnregisterPlugin removes every component owned by pluginID and returns
// the removed ids in registration order.
func (r *Registry) UnregisterPlugin(pluginID string) []string {
	r.mu.Lock()
	owned := r.ownedLocked(pluginID)
	removed := make([]types.Registration, 0, len(owned))
	for _, e := range owned {
		if reg, ok := r.removeLocked(e.reg.FullID); ok {
			removed = append(removed, reg)
		}
	}
	counts := make(map[types.ComponentKind]int)
	for _, reg := range removed {
		counts[reg.Kind] = r.countLocked(reg.Kind)
	}
	r.mu.Unlock()

	ids := make([]string, len(removed))
	for i, reg := range removed {
		ids[i] = reg.FullID
		r.metrics.RecordRegistration(string(reg.Kind), string(ChangeRemoved))
	}
	for kind, count := range counts {
		r.metrics.SetComponents(string(kind), count)
	}
	if len(removed) > 0 {
		r.logger.Debug("plugin components swept",
			zap.String("plugin", pluginID),
			zap.Int("count", len(removed)))
	}

	for _, reg := range removed {
		r.notify(Change{Type: ChangeRemoved, Registration: reg})
	}
	return ids
}

// Get returns the registration stored under fullID
func (r *Registry) Get(fullID string) (types.Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[fullID]
	if !ok {
		return types.Registration{}, false
	}
	return e.reg.Clone(), true
}

// GetMany resolves ids in input order, silently dropping unknown ids
func (r *Registry) GetMany(ids []string) []types.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Registration, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.entries[id]; ok {
			out = append(out, e.reg.Clone())
		}
	}
	return out
}

// List returns registrations of kind sorted by order, then registration
// order. An empty kind lists everything.
func (r *Registry) List(kind types.ComponentKind) []types.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		if kind == "" || e.reg.Kind == kind {
			matched = append(matched, e)
		}
	}
	sortEntries(matched)

	out := make([]types.Registration, len(matched))
	for i, e := range matched {
		out[i] = e.reg.Clone()
	}
	return out
}

// OwnedBy returns the ids contributed by pluginID in registration order
func (r *Registry) OwnedBy(pluginID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.ownedLocked(pluginID)
	ids := make([]string, len(owned))
	for i, e := range owned {
		ids[i] = e.reg.FullID
	}
	return ids
}

// IDs returns every registered id in registration order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	ids := make([]string, len(all))
	for i, e := range all {
		ids[i] = e.reg.FullID
	}
	return ids
}

// ByCapability returns the ids carrying tag in registration order
func (r *Registry) ByCapability(tag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Lookup(tag)
}

// ResolveCapabilities concatenates ByCapability for each tag, keeping the
// first occurrence of an id.
func (r *Registry) ResolveCapabilities(tags []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var ids []string
	for _, tag := range tags {
		for _, id := range r.index.Lookup(tag) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Tags returns every capability tag currently in use
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Tags()
}

// Verify checks that the contract index and the registry agree
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return r.index.Verify(ids, func(id string) ([]string, bool) {
		e, ok := r.entries[id]
		if !ok {
			return nil, false
		}
		return e.reg.Capabilities(), true
	})
}

// Stats returns registry statistics
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byKind := make(map[types.ComponentKind]int)
	for _, e := range r.entries {
		byKind[e.reg.Kind]++
	}
	return Stats{
		Total:  len(r.entries),
		ByKind: byKind,
		Tags:   len(r.index.Tags()),
	}
}

// Subscribe registers fn for every subsequent change. The returned function
// removes the subscription.
func (r *Registry) Subscribe(fn func(Change)) func() {
	r.subMu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription{id: id, fn: fn})
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

func (r *Registry) notify(change Change) {
	r.subMu.Lock()
	snapshot := r.subs
	r.subMu.Unlock()

	for _, s := range snapshot {
		s.fn(change)
	}
}

func (r *Registry) removeLocked(fullID string) (types.Registration, bool) {
	e, ok := r.entries[fullID]
	if !ok {
		return types.Registration{}, false
	}
	delete(r.entries, fullID)
	r.index.Remove(fullID)
	return e.reg, true
}

func (r *Registry) ownedLocked(pluginID string) []*entry {
	var owned []*entry
	for _, e := range r.entries {
		if e.reg.PluginID == pluginID {
			owned = append(owned, e)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })
	return owned
}

func (r *Registry) countLocked(kind types.ComponentKind) int {
	n := 0
	for _, e := range r.entries {
		if e.reg.Kind == kind {
			n++
		}
	}
	return n
}

func sortEntries(entries []*entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].reg.Order != entries[j].reg.Order {
			return entries[i].reg.Order < entries[j].reg.Order
		}
		return entries[i].seq < entries[j].seq
	})
}
