package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/id"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

// OpenOptions controls how a viewport is opened in the workspace
type OpenOptions struct {
	Title      string                 `json:"title,omitempty"`
	Props      map[string]interface{} `json:"props,omitempty"`
	Background bool                   `json:"background,omitempty"` // Open without activating
}

// Opener opens registered viewports as workspace tabs
type Opener interface {
	Open(viewportID string, opts OpenOptions) error
}

// Deps are the shared services an instance is bound to
type Deps struct {
	Registry *component.Registry
	Bus      *bus.Bus
	Layouts  *layout.Manager
	Opener   Opener
	Logger   *zap.Logger
	Metrics  *monitoring.Metrics

	Source      string        // Where the plugin was loaded from, for status
	HookTimeout time.Duration // Per-hook deadline, zero waits on the caller's context
}

// UpdateFunc receives data pushed through Instance.Update
type UpdateFunc func(data interface{})

// Instance is one loaded copy of a plugin. Lifecycle calls are serialised;
// state reads never block on a running hook.
type Instance struct {
	def        *Definition
	instanceID id.InstanceID
	deps       Deps
	scope      *bus.Scope
	api        *API
	logger     *zap.Logger

	lifecycle sync.Mutex // Held for the duration of a lifecycle call

	mu      sync.RWMutex
	state   types.PluginState // Protected by mu
	lastErr string            // Protected by mu
	updates []UpdateFunc      // Protected by mu
}

func newInstance(def *Definition, deps Deps) *Instance {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = component.NewRegistry(deps.Logger)
	}
	if deps.Bus == nil {
		deps.Bus = bus.New(deps.Logger)
	}
	if deps.Layouts == nil {
		deps.Layouts = layout.NewManager(deps.Logger)
	}

	inst := &Instance{
		def:        def,
		instanceID: id.NewInstanceID(),
		deps:       deps,
		scope:      deps.Bus.Scope(def.ID()),
		state:      types.PluginUninitialized,
	}
	inst.logger = deps.Logger.Named("plugin").With(
		zap.String("plugin", def.ID()),
		zap.String("instance", inst.instanceID.String()),
	)
	inst.api = &API{inst: inst}
	return inst
}

// ID returns the plugin id
func (i *Instance) ID() string {
	return i.def.ID()
}

// InstanceID returns the id unique to this instance
func (i *Instance) InstanceID() id.InstanceID {
	return i.instanceID
}

// Definition returns the definition the instance was created from
func (i *Instance) Definition() *Definition {
	return i.def
}

// API returns the instance's bound plugin API
func (i *Instance) API() *API {
	return i.api
}

// State returns the current lifecycle state
func (i *Instance) State() types.PluginState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Status returns the introspection view of the instance
func (i *Instance) Status() types.PluginStatus {
	i.mu.RLock()
	state, lastErr := i.state, i.lastErr
	i.mu.RUnlock()

	components := i.deps.Registry.OwnedBy(i.ID())
	if components == nil {
		components = []string{}
	}
	return types.PluginStatus{
		PluginDescriptor: i.def.Descriptor(),
		InstanceID:       i.instanceID.String(),
		State:            state,
		Initialized:      state == types.PluginInitialized || state == types.PluginStarted || state == types.PluginStopped,
		Started:          state == types.PluginStarted,
		Components:       components,
		Source:           i.deps.Source,
		LastError:        lastErr,
	}
}

// Init runs OnInit once. Calling it again is a no-op. A failed OnInit
// leaves the instance uninitialized.
func (i *Instance) Init(ctx context.Context) error {
	i.lifecycle.Lock()
	defer i.lifecycle.Unlock()

	switch state := i.State(); state {
	case types.PluginUninitialized:
	case types.PluginDisposed:
		return i.illegal("init", state)
	default:
		return nil
	}

	if err := i.runHook(ctx, "init", func(ctx context.Context) error {
		if i.def.cfg.OnInit == nil {
			return nil
		}
		return i.def.cfg.OnInit(ctx)
	}); err != nil {
		return err
	}

	i.transition(types.PluginInitialized)
	return nil
}

// Start runs OnStart. Starting an uninitialized or disposed instance fails
// with *LifecycleError; starting a started instance is a no-op; starting a
// stopped instance starts it again. If OnStart fails, everything it
// registered is swept.
func (i *Instance) Start(ctx context.Context) error {
	i.lifecycle.Lock()
	defer i.lifecycle.Unlock()

	switch state := i.State(); state {
	case types.PluginInitialized, types.PluginStopped:
	case types.PluginStarted:
		return nil
	default:
		return i.illegal("start", state)
	}

	if err := i.runHook(ctx, "start", func(ctx context.Context) error {
		if i.def.cfg.OnStart == nil {
			return nil
		}
		return i.def.cfg.OnStart(ctx, i.api)
	}); err != nil {
		i.sweep()
		return err
	}

	i.transition(types.PluginStarted)
	return nil
}

// Stop runs OnStop and sweeps the plugin's registrations, listeners,
// services and layouts. It is a no-op unless the instance is started.
func (i *Instance) Stop(ctx context.Context) error {
	i.lifecycle.Lock()
	defer i.lifecycle.Unlock()
	return i.stopLocked(ctx)
}

// Dispose stops the instance if needed, runs OnDispose, sweeps and clears
// update callbacks. A disposed instance cannot be initialized or started
// again. Disposing twice is a no-op.
func (i *Instance) Dispose(ctx context.Context) error {
	i.lifecycle.Lock()
	defer i.lifecycle.Unlock()

	if i.State() == types.PluginDisposed {
		return nil
	}

	var firstErr error
	if err := i.stopLocked(ctx); err != nil {
		firstErr = err
	}

	if err := i.runHook(ctx, "dispose", func(ctx context.Context) error {
		if i.def.cfg.OnDispose == nil {
			return nil
		}
		return i.def.cfg.OnDispose(ctx)
	}); err != nil && firstErr == nil {
		firstErr = err
	}

	i.sweep()
	i.mu.Lock()
	i.updates = nil
	i.mu.Unlock()

	i.transition(types.PluginDisposed)
	return firstErr
}

// Update pushes data to a started plugin: OnUpdate first, then every
// callback registered through API.OnUpdate.
func (i *Instance) Update(ctx context.Context, data interface{}) error {
	i.lifecycle.Lock()
	defer i.lifecycle.Unlock()

	if state := i.State(); state != types.PluginStarted {
		return i.illegal("update", state)
	}

	if err := i.runHook(ctx, "update", func(ctx context.Context) error {
		if i.def.cfg.OnUpdate == nil {
			return nil
		}
		return i.def.cfg.OnUpdate(ctx, i.api, data)
	}); err != nil {
		return err
	}

	i.mu.RLock()
	callbacks := append([]UpdateFunc(nil), i.updates...)
	i.mu.RUnlock()

	for _, fn := range callbacks {
		i.safeCall("update callback", func() { fn(data) })
	}
	return nil
}

// UpdateCallbacks returns how many update callbacks are registered
func (i *Instance) UpdateCallbacks() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.updates)
}

func (i *Instance) stopLocked(ctx context.Context) error {
	if i.State() != types.PluginStarted {
		return nil
	}

	err := i.runHook(ctx, "stop", func(ctx context.Context) error {
		if i.def.cfg.OnStop == nil {
			return nil
		}
		return i.def.cfg.OnStop(ctx, i.api)
	})

	i.sweep()
	i.transition(types.PluginStopped)
	return err
}

// sweep removes everything the plugin contributed to the shared services
func (i *Instance) sweep() {
	removed := i.deps.Registry.UnregisterPlugin(i.ID())
	layouts := i.deps.Layouts.UnregisterOwner(i.ID())
	i.scope.Close()

	if len(removed) > 0 || len(layouts) > 0 {
		i.logger.Debug("plugin contributions swept",
			zap.Strings("components", removed),
			zap.Strings("layouts", layouts))
	}
}

func (i *Instance) onUpdate(fn UpdateFunc) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.updates = append(i.updates, fn)
}

func (i *Instance) transition(to types.PluginState) {
	i.mu.Lock()
	from := i.state
	i.state = to
	i.mu.Unlock()

	i.deps.Metrics.RecordTransition(i.ID(), string(to))
	i.logger.Info("plugin state changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)))
}

func (i *Instance) illegal(op string, state types.PluginState) error {
	err := &LifecycleError{PluginID: i.ID(), Op: op, State: state}
	i.logger.Warn("illegal lifecycle call ignored", zap.Error(err))
	return err
}

// runHook runs fn with the configured deadline, turning a panic into an
// error and recording the outcome on the instance.
func (i *Instance) runHook(ctx context.Context, hook string, fn func(context.Context) error) (err error) {
	if i.deps.HookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.deps.HookTimeout)
		defer cancel()
	}

	timer := monitoring.NewTimer(i.deps.Metrics, i.ID(), hook)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		elapsed := timer.Stop()

		if err != nil {
			err = &HookError{PluginID: i.ID(), Hook: hook, Err: err}
			i.logger.Error("plugin hook failed",
				zap.String("hook", hook),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
		}

		i.mu.Lock()
		if err != nil {
			i.lastErr = err.Error()
		} else if hook == "init" || hook == "start" {
			i.lastErr = ""
		}
		i.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (i *Instance) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("plugin callback panicked",
				zap.String("callback", what),
				zap.Any("panic", r))
		}
	}()
	fn()
}
