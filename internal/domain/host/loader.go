package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

// LoadReport summarises a LoadAll pass
type LoadReport struct {
	Loaded []string          `json:"loaded"`
	Failed map[string]string `json:"failed,omitempty"` // Source name -> error
}

// ReloadReport describes a hot reload. Removed ids were owned before and
// are gone, Restored were owned before and after, Added are new.
type ReloadReport struct {
	PluginID string        `json:"plugin_id"`
	Removed  []string      `json:"removed"`
	Restored []string      `json:"restored"`
	Added    []string      `json:"added"`
	Duration time.Duration `json:"duration"`
}

type loaded struct {
	source      Source
	inst        *plugin.Instance
	fingerprint string
	lastErr     string
}

// Loader loads plugins from ordered sources into the shell and drives their
// lifecycle. Lifecycle operations run one at a time and each waits for the
// plugin's hooks to finish, so a hanging plugin blocks the ones after it.
type Loader struct {
	shell *shell.Shell

	op sync.Mutex // Serialises lifecycle operations

	mu      sync.RWMutex
	sources []Source           // Protected by mu
	plugins map[string]*loaded // Protected by mu
	order   []string           // Protected by mu, plugin ids in load order

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewLoader creates a loader bound to sh
func NewLoader(sh *shell.Shell, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		shell:   sh,
		plugins: make(map[string]*loaded),
		logger:  logger.Named("loader"),
	}
}

// WithMetrics adds metrics tracking to the loader
func (l *Loader) WithMetrics(metrics *monitoring.Metrics) *Loader {
	l.metrics = metrics
	return l
}

// Add appends sources to the load sequence
func (l *Loader) Add(sources ...Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = append(l.sources, sources...)
}

// LoadAll loads every source not loaded yet, in order, awaiting each
// plugin's init and start. A failing plugin is logged and skipped.
func (l *Loader) LoadAll(ctx context.Context) LoadReport {
	l.mu.RLock()
	sources := append([]Source(nil), l.sources...)
	l.mu.RUnlock()

	report := LoadReport{Loaded: []string{}, Failed: make(map[string]string)}
	for _, src := range sources {
		if l.sourceLoaded(src) {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Failed[src.Name()] = err.Error()
			continue
		}

		inst, err := l.Load(ctx, src)
		if err != nil {
			l.logger.Error("plugin failed to load, skipping",
				zap.String("source", src.Name()),
				zap.Error(err))
			report.Failed[src.Name()] = err.Error()
			continue
		}
		report.Loaded = append(report.Loaded, inst.ID())
	}

	l.logger.Info("plugins loaded",
		zap.Int("loaded", len(report.Loaded)),
		zap.Int("failed", len(report.Failed)))
	return report
}

// Load loads a single source, initialises and starts it. A plugin that
// fails to start is disposed and not kept.
func (l *Loader) Load(ctx context.Context, src Source) (*plugin.Instance, error) {
	l.op.Lock()
	defer l.op.Unlock()

	def, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}

	l.mu.RLock()
	_, exists := l.plugins[def.ID()]
	l.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("load %s: %q: %w", src.Name(), def.ID(), ErrAlreadyLoaded)
	}

	inst, err := l.boot(ctx, src, def)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.plugins[def.ID()] = &loaded{source: src, inst: inst, fingerprint: fingerprintOf(src)}
	l.order = append(l.order, def.ID())
	l.mu.Unlock()

	return inst, nil
}

// Get returns a loaded instance
func (l *Loader) Get(pluginID string) (*plugin.Instance, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.plugins[pluginID]
	if !ok {
		return nil, false
	}
	return p.inst, true
}

// Plugins returns the status of every loaded plugin in load order
func (l *Loader) Plugins() []types.PluginStatus {
	l.mu.RLock()
	entries := make([]*loaded, 0, len(l.order))
	for _, id := range l.order {
		entries = append(entries, l.plugins[id])
	}
	l.mu.RUnlock()

	out := make([]types.PluginStatus, len(entries))
	for i, p := range entries {
		out[i] = p.status()
	}
	return out
}

// Status returns one plugin's status
func (l *Loader) Status(pluginID string) (types.PluginStatus, bool) {
	l.mu.RLock()
	p, ok := l.plugins[pluginID]
	l.mu.RUnlock()
	if !ok {
		return types.PluginStatus{}, false
	}
	return p.status(), true
}

// Start starts a loaded plugin
func (l *Loader) Start(ctx context.Context, pluginID string) error {
	l.op.Lock()
	defer l.op.Unlock()

	inst, ok := l.Get(pluginID)
	if !ok {
		return fmt.Errorf("start %q: %w", pluginID, ErrPluginNotFound)
	}
	if err := inst.Init(ctx); err != nil {
		return err
	}
	return inst.Start(ctx)
}

// Stop stops a loaded plugin, sweeping its contributions
func (l *Loader) Stop(ctx context.Context, pluginID string) error {
	l.op.Lock()
	defer l.op.Unlock()

	inst, ok := l.Get(pluginID)
	if !ok {
		return fmt.Errorf("stop %q: %w", pluginID, ErrPluginNotFound)
	}
	return inst.Stop(ctx)
}

// Unload disposes a plugin and forgets it. Its source stays in the load
// sequence, so a later LoadAll loads it again.
func (l *Loader) Unload(ctx context.Context, pluginID string) error {
	l.op.Lock()
	defer l.op.Unlock()

	l.mu.Lock()
	p, ok := l.plugins[pluginID]
	if ok {
		delete(l.plugins, pluginID)
		l.order = remove(l.order, pluginID)
	}
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("unload %q: %w", pluginID, ErrPluginNotFound)
	}
	return p.inst.Dispose(ctx)
}

// Reload hot-reloads one plugin: snapshot, dispose, re-load the source,
// init and start, then diff. Other plugins are untouched; if any of their
// ids went missing the report comes back with *CollateralRemovalError.
// The plugin's contributions are briefly absent during the swap.
func (l *Loader) Reload(ctx context.Context, pluginID string) (*ReloadReport, error) {
	l.op.Lock()
	defer l.op.Unlock()

	l.mu.RLock()
	p, ok := l.plugins[pluginID]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("reload %q: %w", pluginID, ErrPluginNotFound)
	}

	start := time.Now()
	registry := l.shell.Registry
	owned := registry.OwnedBy(pluginID)
	others := difference(registry.IDs(), owned)

	if err := p.inst.Dispose(ctx); err != nil {
		l.logger.Warn("dispose during reload failed, continuing",
			zap.String("plugin", pluginID),
			zap.Error(err))
	}

	def, err := p.source.Load(ctx)
	if err == nil && def.ID() != pluginID {
		err = fmt.Errorf("source now defines %q", def.ID())
	}
	if err != nil {
		l.fail(p, pluginID, err)
		return nil, fmt.Errorf("reload %q: %w", pluginID, err)
	}

	inst, err := l.boot(ctx, p.source, def)
	if err != nil {
		l.fail(p, pluginID, err)
		return nil, fmt.Errorf("reload %q: %w", pluginID, err)
	}

	l.mu.Lock()
	p.inst = inst
	p.lastErr = ""
	p.fingerprint = fingerprintOf(p.source)
	l.mu.Unlock()

	now := registry.OwnedBy(pluginID)
	report := &ReloadReport{
		PluginID: pluginID,
		Removed:  difference(owned, now),
		Restored: intersection(owned, now),
		Added:    difference(now, owned),
		Duration: time.Since(start),
	}

	if missing := difference(others, registry.IDs()); len(missing) > 0 {
		l.metrics.RecordReload(pluginID, "collateral")
		l.logger.Error("hot reload removed unrelated components",
			zap.String("plugin", pluginID),
			zap.Strings("missing", missing))
		return report, &CollateralRemovalError{PluginID: pluginID, Missing: missing}
	}

	l.metrics.RecordReload(pluginID, "ok")
	l.logger.Info("plugin reloaded",
		zap.String("plugin", pluginID),
		zap.Int("restored", len(report.Restored)),
		zap.Int("added", len(report.Added)),
		zap.Int("removed", len(report.Removed)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// Shutdown disposes every plugin in reverse load order
func (l *Loader) Shutdown(ctx context.Context) error {
	l.op.Lock()
	defer l.op.Unlock()

	l.mu.Lock()
	order := l.order
	plugins := l.plugins
	l.order = nil
	l.plugins = make(map[string]*loaded)
	l.mu.Unlock()

	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		if err := plugins[order[i]].inst.Dispose(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.logger.Info("plugins disposed", zap.Int("count", len(order)))
	return firstErr
}

// boot instantiates def and runs init then start. On failure the instance
// is disposed so nothing it registered survives.
func (l *Loader) boot(ctx context.Context, src Source, def *plugin.Definition) (*plugin.Instance, error) {
	inst := def.Instantiate(l.shell.Deps(src.Name()))

	err := inst.Init(ctx)
	if err == nil {
		err = inst.Start(ctx)
	}
	if err != nil {
		_ = inst.Dispose(context.WithoutCancel(ctx))
		return nil, err
	}

	l.logger.Info("plugin started",
		zap.String("plugin", def.ID()),
		zap.String("version", def.Descriptor().Version),
		zap.String("source", src.Name()))
	return inst, nil
}

// fail records a reload failure. The disposed instance stays in place so
// the plugin is still listed and can be reloaded again.
func (l *Loader) fail(p *loaded, pluginID string, err error) {
	l.mu.Lock()
	p.lastErr = err.Error()
	l.mu.Unlock()

	l.metrics.RecordReload(pluginID, "error")
	l.logger.Error("plugin reload failed", zap.String("plugin", pluginID), zap.Error(err))
}

// sourceLoaded matches by name since Source values need not be comparable
func (l *Loader) sourceLoaded(src Source) bool {
	name := src.Name()
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.plugins {
		if p.source.Name() == name {
			return true
		}
	}
	return false
}

func (p *loaded) status() types.PluginStatus {
	st := p.inst.Status()
	if p.lastErr != "" {
		st.LastError = p.lastErr
	}
	return st
}

func fingerprintOf(src Source) string {
	f, ok := src.(Fingerprinter)
	if !ok {
		return ""
	}
	fp, err := f.Fingerprint()
	if err != nil {
		return ""
	}
	return fp
}

func difference(a, b []string) []string {
	drop := make(map[string]struct{}, len(b))
	for _, id := range b {
		drop[id] = struct{}{}
	}
	out := []string{}
	for _, id := range a {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func intersection(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, id := range b {
		keep[id] = struct{}{}
	}
	out := []string{}
	for _, id := range a {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// sortedIDs returns the loaded plugin ids sorted, for stable iteration
func (l *Loader) sortedIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.plugins))
	for id := range l.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
