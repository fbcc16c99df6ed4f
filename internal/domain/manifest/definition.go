package manifest

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
)

// ClickEvent is the payload emitted by declarative click actions
type ClickEvent struct {
	PluginID string `json:"plugin_id"`
	ID       string `json:"id"`
}

// Definition turns the manifest into a plugin whose OnStart registers the
// declared layouts, services and components, in that order.
func (m *Manifest) Definition() (*plugin.Definition, error) {
	spec := *m
	return plugin.Define(plugin.Config{
		ID:          m.ID,
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Author:      m.Author,
		Icon:        m.Icon,
		OnStart: func(ctx context.Context, api *plugin.API) error {
			return spec.contribute(api)
		},
	})
}

func (m *Manifest) contribute(api *plugin.API) error {
	for _, l := range m.Layouts {
		render := types.NewRenderHandle(l.Component)
		if l.Component == "" {
			render = types.NewRenderHandle(l.Name)
		}
		if err := api.Layout(layout.Definition{
			Name:        l.Name,
			DisplayName: l.DisplayName,
			Render:      render,
			Order:       l.Order,
			Slots:       l.Slots,
		}); err != nil {
			return fmt.Errorf("layout %q: %w", l.Name, err)
		}
	}

	for _, s := range m.Services {
		response := s.Response
		api.Provide(s.Name, func(context.Context, interface{}) (interface{}, error) {
			return response, nil
		})
	}

	for _, c := range m.Components {
		if err := register(api, c); err != nil {
			return fmt.Errorf("component %q: %w", c.ID, err)
		}
	}

	if m.ActivateLayout != "" {
		api.SetLayout(m.ActivateLayout)
	}
	return nil
}

func register(api *plugin.API, c ComponentSpec) error {
	var render types.RenderHandle
	if c.Component != "" {
		render = types.NewRenderHandle(c.Component)
	}

	switch c.Kind {
	case types.KindViewport:
		return api.Viewport(c.ID, plugin.ViewportOptions{
			Label:       c.Label,
			Component:   render,
			Icon:        c.Icon,
			Description: c.Description,
			Order:       c.Order,
			Tags:        c.Tags,
		})
	case types.KindPanel:
		return api.Panel(c.ID, plugin.PanelOptions{
			Title: c.Label, Component: render, Icon: c.Icon,
			Order: c.Order, Closable: c.Closable, Tags: c.Tags,
		})
	case types.KindBottomPanelTab:
		return api.BottomTab(c.ID, plugin.PanelOptions{
			Title: c.Label, Component: render, Icon: c.Icon,
			Order: c.Order, Closable: c.Closable, Tags: c.Tags,
		})
	case types.KindMenuItem:
		return api.Menu(c.ID, plugin.MenuOptions{
			Label:   c.Label,
			Icon:    c.Icon,
			Order:   c.Order,
			Group:   c.Group,
			Submenu: menuEntries(api, c.Submenu),
			OnClick: emitter(api, c.Emit, c.ID),
		})
	case types.KindToolbarButton:
		return api.Button(c.ID, plugin.ButtonOptions{
			Label:     c.Label,
			Icon:      c.Icon,
			Tooltip:   c.Tooltip,
			Component: render,
			Order:     c.Order,
			Group:     c.Group,
			Align:     c.Align,
			OnClick:   emitter(api, c.Emit, c.ID),
		})
	case types.KindFooterItem:
		return api.Footer(c.ID, plugin.FooterOptions{Component: render, Order: c.Order, Align: c.Align})
	case types.KindLeftPanelMenu:
		return api.LeftMenu(c.ID, plugin.LeftMenuOptions{
			Label:    c.Label,
			Icon:     c.Icon,
			Order:    c.Order,
			Group:    c.Group,
			Viewport: c.Viewport,
			OnClick:  emitter(api, c.Emit, c.ID),
		})
	}

	return api.Register(c.ID, plugin.Options{
		Kind:      c.Kind,
		Component: render,
		Label:     c.Label,
		Icon:      c.Icon,
		Order:     c.Order,
		Group:     c.Group,
		Category:  c.Category,
		Align:     c.Align,
		Priority:  c.Priority,
		Tags:      c.Tags,
		Metadata:  c.Metadata,
	})
}

func menuEntries(api *plugin.API, items []MenuItemSpec) []types.MenuEntry {
	if len(items) == 0 {
		return nil
	}
	out := make([]types.MenuEntry, len(items))
	for i, item := range items {
		out[i] = types.MenuEntry{
			ID:      item.ID,
			Label:   item.Label,
			Icon:    item.Icon,
			Submenu: menuEntries(api, item.Submenu),
			OnClick: emitter(api, item.Emit, item.ID),
		}
	}
	return out
}

// emitter returns a click callback publishing event, or nil when no event
// is declared so the shell reports the entry as having no action.
func emitter(api *plugin.API, event, id string) types.Callback {
	if event == "" {
		return nil
	}
	payload := ClickEvent{PluginID: api.PluginID(), ID: id}
	return func() { api.Emit(event, payload) }
}
