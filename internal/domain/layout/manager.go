package layout

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/signal"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

// ErrDuplicateLayout matches any *DuplicateLayoutError via errors.Is
var ErrDuplicateLayout = errors.New("duplicate layout")

// DuplicateLayoutError is returned when a layout name is registered twice
type DuplicateLayoutError struct {
	Name string
}

func (e *DuplicateLayoutError) Error() string {
	return fmt.Sprintf("layout %q is already registered", e.Name)
}

func (e *DuplicateLayoutError) Unwrap() error { return ErrDuplicateLayout }

// Definition is a named arrangement of slots
type Definition struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name"`
	Render      types.RenderHandle `json:"component"`
	Order       int                `json:"order"`
	Slots       []types.SlotSpec   `json:"slots"`
	Owner       string             `json:"owner,omitempty"` // Plugin id, empty for host layouts
}

// Slot returns the slot spec called name
func (d Definition) Slot(name string) (types.SlotSpec, bool) {
	for _, s := range d.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return types.SlotSpec{}, false
}

// IsZero reports whether d is the empty definition
func (d Definition) IsZero() bool { return d.Name == "" }

// Manager holds layout definitions and the active layout
type Manager struct {
	mu      sync.RWMutex
	layouts map[string]Definition // Protected by mu

	active *signal.Signal[Definition]

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a manager with no layouts and no active layout
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		layouts: make(map[string]Definition),
		active:  signal.New(Definition{}),
		logger:  logger.Named("layout"),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Register adds a layout. Registering a taken name fails with
// *DuplicateLayoutError.
func (m *Manager) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("layout name is required")
	}
	if def.DisplayName == "" {
		def.DisplayName = def.Name
	}
	for _, s := range def.Slots {
		if s.Name == "" {
			return fmt.Errorf("layout %q has a slot without a name", def.Name)
		}
		if !s.ShowTabs.Valid() {
			return fmt.Errorf("layout %q slot %q has unknown tab policy %q", def.Name, s.Name, s.ShowTabs)
		}
	}
	def.Slots = append([]types.SlotSpec(nil), def.Slots...)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.layouts[def.Name]; exists {
		return &DuplicateLayoutError{Name: def.Name}
	}
	m.layouts[def.Name] = def

	m.logger.Debug("layout registered",
		zap.String("name", def.Name),
		zap.String("owner", def.Owner),
		zap.Int("slots", len(def.Slots)))
	return nil
}

// Unregister removes a layout. If it was active, the lowest-order
// remaining layout becomes active.
func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	if _, ok := m.layouts[name]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.layouts, name)
	m.mu.Unlock()

	// Lock order is active before mu, so a concurrent SetActive either
	// sees the layout gone or is replaced here.
	fallback, replaced := m.active.UpdateIf(func(cur Definition) (Definition, bool) {
		if cur.Name != name {
			return cur, false
		}
		m.mu.RLock()
		defer m.mu.RUnlock()
		if sorted := m.sortedLocked(); len(sorted) > 0 {
			return sorted[0], true
		}
		return Definition{}, true
	})
	if replaced {
		m.logger.Info("active layout removed",
			zap.String("name", name),
			zap.String("fallback", fallback.Name))
	}
	return true
}

// UnregisterOwner removes every layout owned by a plugin
func (m *Manager) UnregisterOwner(owner string) []string {
	m.mu.RLock()
	var names []string
	for name, def := range m.layouts {
		if def.Owner == owner {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	sort.Strings(names)
	removed := names[:0]
	for _, name := range names {
		if m.Unregister(name) {
			removed = append(removed, name)
		}
	}
	return removed
}

// SetActive switches the active layout. An unknown name is logged and the
// previous layout stays active.
func (m *Manager) SetActive(name string) bool {
	found := false
	_, switched := m.active.UpdateIf(func(cur Definition) (Definition, bool) {
		m.mu.RLock()
		def, ok := m.layouts[name]
		m.mu.RUnlock()
		found = ok
		if !ok || cur.Name == name {
			return cur, false
		}
		return def, true
	})

	if !found {
		m.metrics.RecordLayoutSwitch("unknown")
		m.logger.Warn("unknown layout, keeping current",
			zap.String("requested", name),
			zap.String("active", m.active.Get().Name))
		return false
	}
	if switched {
		m.metrics.RecordLayoutSwitch("ok")
		m.logger.Info("layout activated", zap.String("name", name))
	}
	return true
}

// Active returns the active layout
func (m *Manager) Active() (Definition, bool) {
	def := m.active.Get()
	return def, !def.IsZero()
}

// Get returns the layout called name
func (m *Manager) Get(name string) (Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.layouts[name]
	return def, ok
}

// List returns layouts sorted by order, then name
func (m *Manager) List() []Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked()
}

// Subscribe registers fn for active layout changes. fn receives the zero
// Definition when the last layout is removed.
func (m *Manager) Subscribe(fn func(Definition)) func() {
	return m.active.Subscribe(fn)
}

func (m *Manager) sortedLocked() []Definition {
	out := make([]Definition, 0, len(m.layouts))
	for _, def := range m.layouts {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}
