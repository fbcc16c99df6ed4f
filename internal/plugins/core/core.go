package core

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"go.uber.org/zap"
)

const (
	ID      = "core"
	Version = "1.0.0"

	LayoutClassic = "classic"
	LayoutFocus   = "focus"

	// Services the host may provide; the settings menu calls them when present
	ServiceSessionSave    = "session.save"
	ServiceSessionRestore = "session.restore"
)

// Options configures the core plugin
type Options struct {
	DefaultLayout string
}

// New defines the built-in core plugin: the classic and focus layouts, a
// settings menu, a focus toggle, a welcome viewport and a status footer.
func New(opts Options) *plugin.Definition {
	p := &corePlugin{defaultLayout: opts.DefaultLayout}
	if p.defaultLayout == "" {
		p.defaultLayout = LayoutClassic
	}
	return plugin.MustDefine(plugin.Config{
		ID:          ID,
		Name:        "Core",
		Version:     Version,
		Description: "Default layouts, settings and status bar",
		Author:      "WidgetArcade",
		OnStart:     p.start,
	})
}

type corePlugin struct {
	defaultLayout string

	mu     sync.RWMutex
	layout string // Protected by mu
}

func (p *corePlugin) start(ctx context.Context, api *plugin.API) error {
	for _, def := range Layouts() {
		if err := api.Layout(def); err != nil {
			return err
		}
	}

	api.On(shell.EventLayoutChanged, func(payload interface{}) {
		if ev, ok := payload.(shell.LayoutEvent); ok {
			p.mu.Lock()
			p.layout = ev.Name
			p.mu.Unlock()
		}
	})

	steps := []func(*plugin.API) error{
		p.registerWelcome,
		p.registerSettings,
		p.registerToolbar,
		p.registerFooter,
	}
	for _, step := range steps {
		if err := step(api); err != nil {
			return err
		}
	}

	active := p.defaultLayout
	if !api.SetLayout(active) {
		api.Logger().Warn("default layout not registered, using classic", zap.String("layout", active))
		active = LayoutClassic
		api.SetLayout(active)
	}
	p.mu.Lock()
	p.layout = active
	p.mu.Unlock()
	return nil
}

// Layouts returns the layouts contributed by the core plugin
func Layouts() []layout.Definition {
	return []layout.Definition{
		{
			Name:        LayoutClassic,
			DisplayName: "Classic",
			Render:      types.NewRenderHandle("ClassicLayout"),
			Order:       0,
			Slots: []types.SlotSpec{
				{Name: "sidebar", Capabilities: []string{types.KindPanel.Tag()}, ShowTabs: types.TabsAuto},
				{Name: "main", Capabilities: []string{types.KindViewport.Tag()}, ShowTabs: types.TabsAlways},
				{Name: "bottom", Capabilities: []string{types.KindBottomPanelTab.Tag()}, ShowTabs: types.TabsAuto},
			},
		},
		{
			Name:        LayoutFocus,
			DisplayName: "Focus",
			Render:      types.NewRenderHandle("FocusLayout"),
			Order:       1,
			Slots: []types.SlotSpec{
				{Name: "main", Capabilities: []string{types.KindViewport.Tag()}, ShowTabs: types.TabsNever},
			},
		},
	}
}

func (p *corePlugin) registerWelcome(api *plugin.API) error {
	if err := api.Viewport("welcome", plugin.ViewportOptions{
		Label:       "Welcome",
		Component:   types.NewRenderHandle("Welcome"),
		Icon:        "home",
		Description: "Start page",
		Order:       -100,
	}); err != nil {
		return err
	}
	return api.LeftMenu("home", plugin.LeftMenuOptions{
		Label:    "Home",
		Icon:     "home",
		Order:    -100,
		Viewport: "welcome",
	})
}

func (p *corePlugin) registerSettings(api *plugin.API) error {
	return api.Menu("settings", plugin.MenuOptions{
		Label: "Settings",
		Icon:  "gear",
		Order: 1000,
		Submenu: []types.MenuEntry{
			{
				ID:    "layout",
				Label: "Layout",
				Submenu: []types.MenuEntry{
					{ID: "layout-classic", Label: "Classic", OnClick: func() { api.SetLayout(LayoutClassic) }},
					{ID: "layout-focus", Label: "Focus", OnClick: func() { api.SetLayout(LayoutFocus) }},
				},
			},
			{ID: "session-save", Label: "Save Session", OnClick: callService(api, ServiceSessionSave)},
			{ID: "session-restore", Label: "Restore Session", OnClick: callService(api, ServiceSessionRestore)},
		},
	})
}

func (p *corePlugin) registerToolbar(api *plugin.API) error {
	return api.Button("toggle-focus", plugin.ButtonOptions{
		Label:   "Focus",
		Icon:    "maximize",
		Tooltip: "Toggle focus layout",
		Align:   types.AlignRight,
		OnClick: func() {
			if p.current() == LayoutFocus {
				api.SetLayout(LayoutClassic)
				return
			}
			api.SetLayout(LayoutFocus)
		},
	})
}

func (p *corePlugin) registerFooter(api *plugin.API) error {
	return api.Footer("status", plugin.FooterOptions{
		Align: types.AlignRight,
		Component: types.NewRenderFunc("StatusBar", func(ctx context.Context, props map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"layout":  p.current(),
				"version": Version,
			}, nil
		}),
	})
}

func (p *corePlugin) current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.layout
}

// callService returns a click handler calling name without blocking the
// caller. A missing service is logged.
func callService(api *plugin.API, name string) types.Callback {
	return func() {
		reply := api.CallAsync(context.Background(), name, nil)
		go func() {
			if r := <-reply; r.Err != nil {
				api.Logger().Warn("settings action failed", zap.String("service", name), zap.Error(r.Err))
			}
		}()
	}
}
