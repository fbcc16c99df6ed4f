package shell

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/slot"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

var (
	// ErrComponentNotFound is returned when triggering an unknown id
	ErrComponentNotFound = errors.New("component not found")
	// ErrNoAction is returned when a component has nothing to trigger
	ErrNoAction = errors.New("component has no action")
)

// Options configures a Shell
type Options struct {
	Logger      *zap.Logger
	Metrics     *monitoring.Metrics
	HookTimeout time.Duration
}

type mountedSlot struct {
	slot        *slot.Slot
	unwatch     func()
	unsubscribe func()
}

// Shell is the single service object shared by the host and every plugin
// instance. It owns the registry, bus and layout manager, keeps the ordered
// collections and workspace in step with the registry, and mounts the
// slots of the active layout.
type Shell struct {
	Registry    *component.Registry
	Bus         *bus.Bus
	Layouts     *layout.Manager
	Collections *Collections
	Workspace   *Workspace

	mu        sync.RWMutex
	slots     map[string]*mountedSlot // Protected by mu
	slotOrder []string                // Protected by mu

	unsubs      []func()
	root        *zap.Logger
	logger      *zap.Logger
	metrics     *monitoring.Metrics
	hookTimeout time.Duration
}

// New creates the shell and wires its reactive plumbing
func New(opts Options) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := component.NewRegistry(logger).WithMetrics(opts.Metrics)
	s := &Shell{
		Registry:    registry,
		Bus:         bus.New(logger).WithMetrics(opts.Metrics),
		Layouts:     layout.NewManager(logger).WithMetrics(opts.Metrics),
		Collections: newCollections(),
		Workspace:   newWorkspace(registry, logger),
		slots:       make(map[string]*mountedSlot),
		root:        logger,
		logger:      logger.Named("shell"),
		metrics:     opts.Metrics,
		hookTimeout: opts.HookTimeout,
	}

	s.Collections.seed(registry)
	s.unsubs = append(s.unsubs,
		registry.Subscribe(s.Collections.apply),
		registry.Subscribe(s.Workspace.onRegistryChange),
		registry.Subscribe(func(c component.Change) { s.Bus.Emit(EventComponentChanged, c) }),
		s.Layouts.Subscribe(s.applyLayout),
		s.Workspace.Subscribe(func(w WorkspaceState) { s.Bus.Emit(EventWorkspaceChanged, w) }),
	)
	return s
}

// Deps returns the plugin dependencies bound to this shell
func (s *Shell) Deps(source string) plugin.Deps {
	return plugin.Deps{
		Registry:    s.Registry,
		Bus:         s.Bus,
		Layouts:     s.Layouts,
		Opener:      s.Workspace,
		Logger:      s.root,
		Metrics:     s.metrics,
		Source:      source,
		HookTimeout: s.hookTimeout,
	}
}

// Slot returns a mounted slot of the active layout
func (s *Shell) Slot(name string) (*slot.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.slots[name]
	if !ok {
		return nil, false
	}
	return m.slot, true
}

// Slots returns snapshots of the active layout's slots in layout order
func (s *Shell) Slots() []slot.Snapshot {
	s.mu.RLock()
	mounted := make([]*slot.Slot, 0, len(s.slotOrder))
	for _, name := range s.slotOrder {
		mounted = append(mounted, s.slots[name].slot)
	}
	s.mu.RUnlock()

	out := make([]slot.Snapshot, len(mounted))
	for i, sl := range mounted {
		out[i] = sl.Snapshot()
	}
	return out
}

// Trigger runs a component's action: a menu, button or left-menu click, or
// opening a viewport. entry selects a submenu entry of a menu item.
func (s *Shell) Trigger(fullID, entry string) error {
	reg, ok := s.Registry.Get(fullID)
	if !ok {
		return fmt.Errorf("trigger %q: %w", fullID, ErrComponentNotFound)
	}

	var action func() error
	switch p := reg.Payload.(type) {
	case types.MenuSpec:
		cb := p.OnClick
		if entry != "" {
			e, found := findEntry(p.Submenu, entry)
			if !found {
				return fmt.Errorf("trigger %q entry %q: %w", fullID, entry, ErrComponentNotFound)
			}
			cb = e.OnClick
		}
		action = callback(cb)
	case types.ButtonSpec:
		action = callback(p.OnClick)
	case types.LeftMenuSpec:
		action = callback(p.OnClick)
		if action == nil && p.Viewport != "" {
			viewport := p.Viewport
			action = func() error { return s.Workspace.Open(viewport, plugin.OpenOptions{}) }
		}
	case types.ViewportSpec:
		action = func() error { return s.Workspace.Open(fullID, plugin.OpenOptions{}) }
	}
	if action == nil {
		return fmt.Errorf("trigger %q: %w", fullID, ErrNoAction)
	}

	if err := action(); err != nil {
		s.logger.Warn("component action failed", zap.String("component", fullID), zap.Error(err))
		return fmt.Errorf("trigger %q: %w", fullID, err)
	}

	s.Bus.Emit(EventTriggered, TriggerEvent{ID: fullID, Entry: entry})
	return nil
}

// Close detaches the shell from its services
func (s *Shell) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	s.mu.Lock()
	mounted := s.slots
	s.slots = make(map[string]*mountedSlot)
	s.slotOrder = nil
	s.mu.Unlock()

	for _, m := range mounted {
		m.unwatch()
		m.unsubscribe()
	}
}

// applyLayout mounts the slots of def. Slots whose name survives the switch
// are reconfigured in place so their active tab is kept when possible.
func (s *Shell) applyLayout(def layout.Definition) {
	s.mu.Lock()
	old := s.slots
	next := make(map[string]*mountedSlot, len(def.Slots))
	order := make([]string, 0, len(def.Slots))
	var reconfigure []types.SlotSpec
	var created []*slot.Slot

	for _, spec := range def.Slots {
		order = append(order, spec.Name)
		if m, ok := old[spec.Name]; ok {
			next[spec.Name] = m
			delete(old, spec.Name)
			reconfigure = append(reconfigure, spec)
			continue
		}
		sl := slot.New(slot.FromSpec(spec), s.Registry, s.logger)
		next[spec.Name] = &mountedSlot{
			slot:        sl,
			unwatch:     sl.Watch(s.Registry),
			unsubscribe: sl.Subscribe(func(snap slot.Snapshot) { s.Bus.Emit(EventSlotChanged, snap) }),
		}
		created = append(created, sl)
	}
	s.slots = next
	s.slotOrder = order
	s.mu.Unlock()

	for _, m := range old {
		m.unwatch()
		m.unsubscribe()
	}
	for _, spec := range reconfigure {
		next[spec.Name].slot.Reconfigure(spec.Capabilities, spec.ShowTabs)
	}

	s.logger.Info("layout applied",
		zap.String("layout", def.Name),
		zap.Int("slots", len(order)),
		zap.Int("created", len(created)),
		zap.Int("reused", len(reconfigure)))

	s.Bus.Emit(EventLayoutChanged, LayoutEvent{Name: def.Name, DisplayName: def.DisplayName})
	for _, sl := range created {
		s.Bus.Emit(EventSlotChanged, sl.Snapshot())
	}
}

// callback adapts a plugin callback, recovering a panic as an error
func callback(cb types.Callback) func() error {
	if cb == nil {
		return nil
	}
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("callback panicked: %v", r)
			}
		}()
		cb()
		return nil
	}
}

func findEntry(entries []types.MenuEntry, id string) (types.MenuEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
		if found, ok := findEntry(e.Submenu, id); ok {
			return found, true
		}
	}
	return types.MenuEntry{}, false
}
