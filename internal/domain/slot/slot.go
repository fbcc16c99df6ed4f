package slot

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/signal"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

// State is the slot's composition state
type State string

const (
	StateEmpty  State = "empty"
	StateSingle State = "single"
	StateMulti  State = "multi"
)

// Resolver looks components up by capability. *component.Registry
// satisfies it.
type Resolver interface {
	ResolveCapabilities(tags []string) []string
	GetMany(ids []string) []types.Registration
}

// ChangeSource delivers registry changes
type ChangeSource interface {
	Subscribe(fn func(component.Change)) func()
}

// Config declares what a slot hosts
type Config struct {
	Name         string
	Capabilities []string
	ShowTabs     types.TabPolicy
}

// FromSpec converts a layout slot spec
func FromSpec(spec types.SlotSpec) Config {
	return Config{
		Name:         spec.Name,
		Capabilities: append([]string(nil), spec.Capabilities...),
		ShowTabs:     spec.ShowTabs,
	}
}

// Snapshot is the resolved view of a slot
type Snapshot struct {
	Name         string          `json:"name"`
	Capabilities []string        `json:"capabilities"`
	Policy       types.TabPolicy `json:"policy"`
	State        State           `json:"state"`
	Resolved     []string        `json:"resolved"`
	ActiveTabID  string          `json:"active_tab_id,omitempty"`
	TabsVisible  bool            `json:"tabs_visible"`
}

// Rendered is the output of one component in a slot render pass
type Rendered struct {
	ID     string      `json:"id"`
	Output interface{} `json:"output,omitempty"`
	Err    error       `json:"-"`
	Error  string      `json:"error,omitempty"`
}

// Slot resolves its capabilities into an ordered tab list and tracks the
// active tab. The active tab always references a resolved component when
// any component resolves.
type Slot struct {
	mu       sync.RWMutex
	cfg      Config   // Protected by mu
	resolved []string // Protected by mu
	active   string   // Protected by mu

	resolver Resolver
	changes  *signal.Signal[Snapshot]
	logger   *zap.Logger
}

// New creates a slot and resolves it immediately
func New(cfg Config, resolver Resolver, logger *zap.Logger) *Slot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShowTabs == "" {
		cfg.ShowTabs = types.TabsAuto
	}
	cfg.Capabilities = append([]string(nil), cfg.Capabilities...)

	s := &Slot{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger.Named("slot").With(zap.String("slot", cfg.Name)),
	}
	s.mu.Lock()
	s.recomputeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes = signal.New(snap)
	return s
}

// Name returns the slot name
func (s *Slot) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Name
}

// Watch refreshes the slot on every change from source
func (s *Slot) Watch(source ChangeSource) func() {
	return source.Subscribe(func(component.Change) { s.Refresh() })
}

// Refresh re-resolves the slot. Subscribers are notified only when the
// resolved list or active tab changed.
func (s *Slot) Refresh() Snapshot {
	s.mu.Lock()
	prevResolved, prevActive := s.resolved, s.active
	s.recomputeLocked()
	snap := s.snapshotLocked()
	changed := prevActive != s.active || !equal(prevResolved, s.resolved)
	s.mu.Unlock()

	if changed {
		if prevActive != "" && prevActive != snap.ActiveTabID {
			s.logger.Debug("active tab fell back",
				zap.String("from", prevActive),
				zap.String("to", snap.ActiveTabID))
		}
		s.changes.Set(snap)
	}
	return snap
}

// Reconfigure swaps the hosted capabilities and tab policy, used when the
// active layout changes. The active tab is kept if it still resolves.
func (s *Slot) Reconfigure(capabilities []string, policy types.TabPolicy) Snapshot {
	if policy == "" {
		policy = types.TabsAuto
	}

	s.mu.Lock()
	s.cfg.Capabilities = append([]string(nil), capabilities...)
	s.cfg.ShowTabs = policy
	s.recomputeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes.Set(snap)
	return snap
}

// SetActiveTab selects id. Only currently resolved ids are accepted.
func (s *Slot) SetActiveTab(id string) bool {
	s.mu.Lock()
	if !contains(s.resolved, id) {
		s.mu.Unlock()
		return false
	}
	if s.active == id {
		s.mu.Unlock()
		return true
	}
	s.active = id
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes.Set(snap)
	return true
}

// ActiveTab returns the active tab id, empty when nothing resolves
func (s *Slot) ActiveTab() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Resolved returns the resolved component ids in display order
func (s *Slot) Resolved() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.resolved...)
}

// State returns empty, single or multi
func (s *Slot) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateOf(len(s.resolved))
}

// TabsVisible reports whether the tab bar is shown under the slot's policy
func (s *Slot) TabsVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tabsVisible(s.cfg.ShowTabs, len(s.resolved))
}

// Snapshot returns the current resolved view
func (s *Slot) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Components returns the resolved registrations in display order
func (s *Slot) Components() []types.Registration {
	return s.resolver.GetMany(s.Resolved())
}

// Subscribe registers fn for snapshot changes
func (s *Slot) Subscribe(fn func(Snapshot)) func() {
	return s.changes.Subscribe(fn)
}

// Render invokes every resolved component. A component that errors or
// panics is reported in its own entry and does not affect its siblings.
func (s *Slot) Render(ctx context.Context, props map[string]interface{}) []Rendered {
	components := s.Components()
	out := make([]Rendered, 0, len(components))

	for _, reg := range components {
		r := Rendered{ID: reg.FullID}
		if err := ctx.Err(); err != nil {
			r.Err = err
		} else {
			r.Output, r.Err = reg.Render.Invoke(ctx, props)
		}
		if r.Err != nil {
			r.Error = r.Err.Error()
			s.logger.Warn("component render failed",
				zap.String("component", reg.FullID),
				zap.Error(r.Err))
		}
		out = append(out, r)
	}
	return out
}

func (s *Slot) recomputeLocked() {
	s.resolved = s.resolver.ResolveCapabilities(s.cfg.Capabilities)
	if s.active != "" && contains(s.resolved, s.active) {
		return
	}
	if len(s.resolved) > 0 {
		s.active = s.resolved[0]
	} else {
		s.active = ""
	}
}

func (s *Slot) snapshotLocked() Snapshot {
	return Snapshot{
		Name:         s.cfg.Name,
		Capabilities: append([]string(nil), s.cfg.Capabilities...),
		Policy:       s.cfg.ShowTabs,
		State:        stateOf(len(s.resolved)),
		Resolved:     append([]string(nil), s.resolved...),
		ActiveTabID:  s.active,
		TabsVisible:  tabsVisible(s.cfg.ShowTabs, len(s.resolved)),
	}
}

func stateOf(n int) State {
	switch {
	case n == 0:
		return StateEmpty
	case n == 1:
		return StateSingle
	default:
		return StateMulti
	}
}

func tabsVisible(policy types.TabPolicy, n int) bool {
	switch policy {
	case types.TabsAlways:
		return true
	case types.TabsNever:
		return false
	default:
		return n > 1
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer for log output
func (s Snapshot) String() string {
	return fmt.Sprintf("%s[%s active=%q tabs=%t %v]", s.Name, s.State, s.ActiveTabID, s.TabsVisible, s.Resolved)
}
