package shell

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/signal"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

// ErrNotViewport is returned when opening an id that is not a registered
// viewport
var ErrNotViewport = errors.New("not a registered viewport")

// OpenTab is a viewport opened in the main area
type OpenTab struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Props    map[string]interface{} `json:"props,omitempty"`
	OpenedAt time.Time              `json:"opened_at"`
}

// WorkspaceState is the open-tab view of the main area
type WorkspaceState struct {
	Tabs   []OpenTab `json:"tabs"`
	Active string    `json:"active,omitempty"`
}

// Workspace tracks opened viewports. A viewport removed from the registry
// is closed, and focus falls back to the first open tab.
type Workspace struct {
	mu     sync.Mutex
	tabs   []OpenTab // Protected by mu
	active string    // Protected by mu

	registry *component.Registry
	state    *signal.Signal[WorkspaceState]
	logger   *zap.Logger
}

func newWorkspace(registry *component.Registry, logger *zap.Logger) *Workspace {
	return &Workspace{
		registry: registry,
		state:    signal.New(WorkspaceState{Tabs: []OpenTab{}}),
		logger:   logger.Named("workspace"),
	}
}

// Open opens viewportID, or focuses it when already open. Background
// opens leave the current focus alone unless nothing is focused.
func (w *Workspace) Open(viewportID string, opts plugin.OpenOptions) error {
	reg, ok := w.registry.Get(viewportID)
	if !ok || reg.Kind != types.KindViewport {
		return fmt.Errorf("open %q: %w", viewportID, ErrNotViewport)
	}

	title := opts.Title
	if title == "" {
		title = reg.Label
	}

	w.mu.Lock()
	if i := w.indexLocked(viewportID); i >= 0 {
		if opts.Props != nil {
			w.tabs[i].Props = opts.Props
		}
	} else {
		w.tabs = append(w.tabs, OpenTab{
			ID:       viewportID,
			Title:    title,
			Props:    opts.Props,
			OpenedAt: time.Now(),
		})
	}
	prev := w.active
	if !opts.Background || w.active == "" {
		w.active = viewportID
	}
	next := w.active
	state := w.snapshotLocked()
	w.mu.Unlock()

	w.logger.Debug("viewport opened", zap.String("viewport", viewportID))
	w.switchFocus(prev, next)
	w.state.Set(state)
	return nil
}

// Activate focuses an open tab
func (w *Workspace) Activate(viewportID string) bool {
	w.mu.Lock()
	if w.indexLocked(viewportID) < 0 {
		w.mu.Unlock()
		return false
	}
	prev := w.active
	w.active = viewportID
	state := w.snapshotLocked()
	w.mu.Unlock()

	if prev != viewportID {
		w.switchFocus(prev, viewportID)
		w.state.Set(state)
	}
	return true
}

// Close closes an open tab
func (w *Workspace) Close(viewportID string) bool {
	w.mu.Lock()
	i := w.indexLocked(viewportID)
	if i < 0 {
		w.mu.Unlock()
		return false
	}
	w.tabs = append(w.tabs[:i:i], w.tabs[i+1:]...)
	prev := w.active
	if w.active == viewportID {
		w.active = ""
		if len(w.tabs) > 0 {
			w.active = w.tabs[0].ID
		}
	}
	next := w.active
	state := w.snapshotLocked()
	w.mu.Unlock()

	w.switchFocus(prev, next)
	w.state.Set(state)
	return true
}

// State returns the open tabs and the focused one
func (w *Workspace) State() WorkspaceState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Subscribe registers fn for workspace changes
func (w *Workspace) Subscribe(fn func(WorkspaceState)) func() {
	return w.state.Subscribe(fn)
}

func (w *Workspace) onRegistryChange(change component.Change) {
	if change.Type != component.ChangeRemoved || change.Registration.Kind != types.KindViewport {
		return
	}
	if w.Close(change.Registration.FullID) {
		w.logger.Debug("viewport removed, tab closed", zap.String("viewport", change.Registration.FullID))
	}
}

// switchFocus runs deactivate/activate callbacks. prev may already be gone
// from the registry, in which case its callback is skipped.
func (w *Workspace) switchFocus(prev, next string) {
	if prev == next {
		return
	}
	if prev != "" {
		if reg, ok := w.registry.Get(prev); ok {
			if spec, ok := reg.Payload.(types.ViewportSpec); ok && spec.OnDeactivate != nil {
				w.safeCall(prev, "deactivate", spec.OnDeactivate)
			}
		}
	}
	if next != "" {
		if reg, ok := w.registry.Get(next); ok {
			if spec, ok := reg.Payload.(types.ViewportSpec); ok && spec.OnActivate != nil {
				w.safeCall(next, "activate", spec.OnActivate)
			}
		}
	}
}

func (w *Workspace) safeCall(viewportID, what string, fn types.Callback) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("viewport callback panicked",
				zap.String("viewport", viewportID),
				zap.String("callback", what),
				zap.Any("panic", r))
		}
	}()
	fn()
}

func (w *Workspace) indexLocked(viewportID string) int {
	for i, t := range w.tabs {
		if t.ID == viewportID {
			return i
		}
	}
	return -1
}

func (w *Workspace) snapshotLocked() WorkspaceState {
	tabs := make([]OpenTab, len(w.tabs))
	copy(tabs, w.tabs)
	return WorkspaceState{Tabs: tabs, Active: w.active}
}
