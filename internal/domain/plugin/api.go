package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/utils"
	"go.uber.org/zap"
)

// ViewportOptions configures API.Viewport
type ViewportOptions struct {
	Label        string
	Component    types.RenderHandle
	Icon         string
	Description  string
	Order        int
	Tags         []string
	OnActivate   types.Callback
	OnDeactivate types.Callback
}

// PanelOptions configures API.Tab, API.Panel and API.BottomTab
type PanelOptions struct {
	Title     string
	Component types.RenderHandle
	Icon      string
	Order     int
	Closable  bool
	Tags      []string
}

// MenuOptions configures API.Menu
type MenuOptions struct {
	Label   string
	Icon    string
	Order   int
	Group   string
	Submenu []types.MenuEntry
	OnClick types.Callback
}

// FooterOptions configures API.Footer
type FooterOptions struct {
	Component types.RenderHandle
	Order     int
	Align     types.Align
}

// ButtonOptions configures API.Button
type ButtonOptions struct {
	Label     string
	Icon      string
	Tooltip   string
	Component types.RenderHandle
	Order     int
	Group     string
	Align     types.Align
	OnClick   types.Callback
}

// LeftMenuOptions configures API.LeftMenu
type LeftMenuOptions struct {
	Label    string
	Icon     string
	Order    int
	Group    string
	Viewport string // Local or full id of the viewport opened on click
	OnClick  types.Callback
}

// Options configures the generic API.Register
type Options struct {
	Kind      types.ComponentKind
	Component types.RenderHandle
	Label     string
	Icon      string
	Order     int
	Group     string
	Category  string
	Align     types.Align
	Priority  int
	Tags      []string
	Metadata  map[string]interface{}
	Payload   types.Payload // Overrides the payload derived from Align/Priority
}

// API is the per-instance façade handed to OnStart. Every helper injects
// the plugin id into the component id so the instance can sweep its own
// contributions on stop and dispose.
type API struct {
	inst *Instance
}

// PluginID returns the owning plugin's id
func (a *API) PluginID() string {
	return a.inst.ID()
}

// Logger returns the plugin's scoped logger
func (a *API) Logger() *zap.Logger {
	return a.inst.logger
}

// GetStatus returns the owning instance's status
func (a *API) GetStatus() types.PluginStatus {
	return a.inst.Status()
}

// Viewport registers a main-content component that can be opened as a tab
func (a *API) Viewport(localID string, opts ViewportOptions) error {
	return a.register(localID, types.Registration{
		Kind:   types.KindViewport,
		Render: opts.Component,
		Label:  opts.Label,
		Icon:   opts.Icon,
		Order:  opts.Order,
		Tags:   opts.Tags,
		Payload: types.ViewportSpec{
			Description:  opts.Description,
			OnActivate:   opts.OnActivate,
			OnDeactivate: opts.OnDeactivate,
		},
	})
}

// Tab registers a panel tab
func (a *API) Tab(localID string, opts PanelOptions) error {
	return a.register(localID, types.Registration{
		Kind:    types.KindPanel,
		Render:  opts.Component,
		Label:   opts.Title,
		Icon:    opts.Icon,
		Order:   opts.Order,
		Tags:    opts.Tags,
		Payload: types.PanelSpec{Closable: opts.Closable},
	})
}

// Panel is an alias of Tab
func (a *API) Panel(localID string, opts PanelOptions) error {
	return a.Tab(localID, opts)
}

// BottomTab registers a bottom panel tab
func (a *API) BottomTab(localID string, opts PanelOptions) error {
	return a.register(localID, types.Registration{
		Kind:    types.KindBottomPanelTab,
		Render:  opts.Component,
		Label:   opts.Title,
		Icon:    opts.Icon,
		Order:   opts.Order,
		Tags:    opts.Tags,
		Payload: types.BottomTabSpec{Closable: opts.Closable},
	})
}

// Menu registers a top menu item
func (a *API) Menu(localID string, opts MenuOptions) error {
	return a.register(localID, types.Registration{
		Kind:  types.KindMenuItem,
		Label: opts.Label,
		Icon:  opts.Icon,
		Order: opts.Order,
		Group: opts.Group,
		Payload: types.MenuSpec{
			Submenu: opts.Submenu,
			OnClick: opts.OnClick,
		},
	})
}

// Footer registers a footer widget
func (a *API) Footer(localID string, opts FooterOptions) error {
	return a.register(localID, types.Registration{
		Kind:    types.KindFooterItem,
		Render:  opts.Component,
		Order:   opts.Order,
		Payload: types.FooterSpec{Align: opts.Align},
	})
}

// Button registers a toolbar button
func (a *API) Button(localID string, opts ButtonOptions) error {
	return a.register(localID, types.Registration{
		Kind:   types.KindToolbarButton,
		Render: opts.Component,
		Label:  opts.Label,
		Icon:   opts.Icon,
		Order:  opts.Order,
		Group:  opts.Group,
		Payload: types.ButtonSpec{
			Tooltip: opts.Tooltip,
			Align:   opts.Align,
			OnClick: opts.OnClick,
		},
	})
}

// LeftMenu registers a left panel menu entry
func (a *API) LeftMenu(localID string, opts LeftMenuOptions) error {
	viewport := opts.Viewport
	if viewport != "" {
		viewport = a.qualify(viewport)
	}
	return a.register(localID, types.Registration{
		Kind:  types.KindLeftPanelMenu,
		Label: opts.Label,
		Icon:  opts.Icon,
		Order: opts.Order,
		Group: opts.Group,
		Payload: types.LeftMenuSpec{
			Viewport: viewport,
			OnClick:  opts.OnClick,
		},
	})
}

// Register registers a component of any kind
func (a *API) Register(localID string, opts Options) error {
	payload := opts.Payload
	if payload == nil {
		payload = defaultPayload(opts)
	}
	return a.register(localID, types.Registration{
		Kind:     opts.Kind,
		Render:   opts.Component,
		Label:    opts.Label,
		Icon:     opts.Icon,
		Order:    opts.Order,
		Group:    opts.Group,
		Category: opts.Category,
		Tags:     opts.Tags,
		Metadata: opts.Metadata,
		Payload:  payload,
	})
}

// Unregister removes one of the plugin's own components
func (a *API) Unregister(localID string) bool {
	return a.inst.deps.Registry.Unregister(types.FullID(a.PluginID(), localID))
}

// Layout registers a layout owned by the plugin. It is removed when the
// plugin stops.
func (a *API) Layout(def layout.Definition) error {
	def.Owner = a.PluginID()
	return a.inst.deps.Layouts.Register(def)
}

// SetLayout switches the active layout. Unknown names are ignored.
func (a *API) SetLayout(name string) bool {
	return a.inst.deps.Layouts.SetActive(name)
}

// Open opens a viewport as a workspace tab. A local id refers to one of
// the plugin's own viewports; a full id may name any plugin's viewport.
func (a *API) Open(viewportID string, opts OpenOptions) error {
	if a.inst.deps.Opener == nil {
		return fmt.Errorf("no workspace available to open %q", viewportID)
	}
	return a.inst.deps.Opener.Open(a.qualify(viewportID), opts)
}

// Emit publishes an event on the shared bus
func (a *API) Emit(event string, payload interface{}) int {
	return a.inst.scope.Emit(event, payload)
}

// On subscribes to an event on the shared bus
func (a *API) On(event string, h bus.Handler) *bus.Subscription {
	return a.inst.scope.On(event, h)
}

// EmitSelf publishes an event namespaced to this plugin
func (a *API) EmitSelf(event string, payload interface{}) int {
	return a.inst.scope.Emit(a.selfEvent(event), payload)
}

// OnSelf subscribes to an event namespaced to this plugin
func (a *API) OnSelf(event string, h bus.Handler) *bus.Subscription {
	return a.inst.scope.On(a.selfEvent(event), h)
}

// Provide installs a service handler owned by this plugin
func (a *API) Provide(name string, h bus.ServiceHandler) {
	a.inst.scope.Provide(name, h)
}

// Call invokes a service. A missing provider yields
// *bus.ServiceNotFoundError.
func (a *API) Call(ctx context.Context, name string, input interface{}) (interface{}, error) {
	return a.inst.scope.Call(ctx, name, input)
}

// CallAsync invokes a service without blocking
func (a *API) CallAsync(ctx context.Context, name string, input interface{}) <-chan bus.Reply {
	return a.inst.scope.CallAsync(ctx, name, input)
}

// OnUpdate registers a callback for data pushed through Instance.Update
func (a *API) OnUpdate(fn UpdateFunc) {
	a.inst.onUpdate(fn)
}

func (a *API) register(localID string, reg types.Registration) error {
	if err := utils.ValidateID(localID, "component id", true); err != nil {
		return err
	}
	if err := utils.ValidateString(reg.Label, "label", 0, utils.MaxLabelLength, false); err != nil {
		return err
	}
	if err := utils.ValidateTags(reg.Tags); err != nil {
		return err
	}
	if reg.Render.IsZero() {
		reg.Render = types.NewRenderHandle(localID)
	} else if err := utils.ValidateComponentName(reg.Render.Name(), "component"); err != nil {
		return err
	}

	reg.PluginID = a.PluginID()
	reg.LocalID = localID
	reg.FullID = types.FullID(reg.PluginID, localID)
	return a.inst.deps.Registry.Register(reg)
}

func (a *API) qualify(id string) string {
	if strings.Contains(id, types.IDSeparator) {
		return id
	}
	return types.FullID(a.PluginID(), id)
}

func (a *API) selfEvent(event string) string {
	return a.PluginID() + types.IDSeparator + event
}

func defaultPayload(opts Options) types.Payload {
	switch opts.Kind {
	case types.KindLayoutComponent:
		return types.LayoutComponentSpec{Align: opts.Align, Priority: opts.Priority}
	case types.KindToolbarButton:
		return types.ButtonSpec{Align: opts.Align}
	case types.KindFooterItem:
		return types.FooterSpec{Align: opts.Align}
	case types.KindViewport:
		return types.ViewportSpec{}
	case types.KindPanel:
		return types.PanelSpec{}
	case types.KindBottomPanelTab:
		return types.BottomTabSpec{}
	case types.KindMenuItem:
		return types.MenuSpec{}
	case types.KindLeftPanelMenu:
		return types.LeftMenuSpec{}
	}
	return nil
}
