package script

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// binding exposes a plugin.API to the script as a plain object
type binding struct {
	r   *Runtime
	api *plugin.API
}

type hostFunc = func(call goja.FunctionCall) goja.Value

// object builds the script-side API. Must hold the token.
func (b *binding) object() *goja.Object {
	obj := b.r.vm.NewObject()
	obj.Set("id", b.api.PluginID())

	methods := map[string]hostFunc{
		"log":        b.log,
		"status":     b.status,
		"viewport":   b.component(types.KindViewport),
		"panel":      b.component(types.KindPanel),
		"tab":        b.component(types.KindPanel),
		"bottomTab":  b.component(types.KindBottomPanelTab),
		"menu":       b.component(types.KindMenuItem),
		"button":     b.component(types.KindToolbarButton),
		"footer":     b.component(types.KindFooterItem),
		"leftMenu":   b.component(types.KindLeftPanelMenu),
		"register":   b.register,
		"unregister": b.unregister,
		"layout":     b.layout,
		"setLayout":  b.setLayout,
		"open":       b.open,
		"emit":       b.emit(false),
		"emitSelf":   b.emit(true),
		"on":         b.on(false),
		"onSelf":     b.on(true),
		"provide":    b.provide,
		"call":       b.call,
		"onUpdate":   b.onUpdate,
	}
	for name, fn := range methods {
		obj.Set(name, fn)
	}
	return obj
}

func (b *binding) log(call goja.FunctionCall) goja.Value {
	var msg string
	for i, arg := range call.Arguments {
		if i > 0 {
			msg += " "
		}
		msg += arg.String()
	}
	b.r.record("log", msg)
	return goja.Undefined()
}

func (b *binding) status(goja.FunctionCall) goja.Value {
	var status types.PluginStatus
	b.r.yield(func() error {
		status = b.api.GetStatus()
		return nil
	})
	return b.r.vm.ToValue(status)
}

// component returns the registration helper for kind
func (b *binding) component(kind types.ComponentKind) hostFunc {
	return func(call goja.FunctionCall) goja.Value {
		localID := call.Argument(0).String()
		o := b.r.options(call.Argument(1))
		b.check(b.r.yield(b.registrar(kind, localID, o)))
		return goja.Undefined()
	}
}

// registrar reads the options under the token and returns the host call
func (b *binding) registrar(kind types.ComponentKind, localID string, o options) func() error {
	label := o.str("label")
	if label == "" {
		label = o.str("title")
	}
	render := o.render(localID)

	switch kind {
	case types.KindViewport:
		opts := plugin.ViewportOptions{
			Label:        label,
			Component:    render,
			Icon:         o.str("icon"),
			Description:  o.str("description"),
			Order:        o.num("order"),
			Tags:         o.list("tags"),
			OnActivate:   o.callback("onActivate"),
			OnDeactivate: o.callback("onDeactivate"),
		}
		return func() error { return b.api.Viewport(localID, opts) }
	case types.KindPanel, types.KindBottomPanelTab:
		opts := plugin.PanelOptions{
			Title:     label,
			Component: render,
			Icon:      o.str("icon"),
			Order:     o.num("order"),
			Closable:  o.flag("closable"),
			Tags:      o.list("tags"),
		}
		if kind == types.KindBottomPanelTab {
			return func() error { return b.api.BottomTab(localID, opts) }
		}
		return func() error { return b.api.Panel(localID, opts) }
	case types.KindMenuItem:
		opts := plugin.MenuOptions{
			Label:   label,
			Icon:    o.str("icon"),
			Order:   o.num("order"),
			Group:   o.str("group"),
			Submenu: o.menuEntries("submenu"),
			OnClick: o.callback("onClick"),
		}
		return func() error { return b.api.Menu(localID, opts) }
	case types.KindToolbarButton:
		opts := plugin.ButtonOptions{
			Label:     label,
			Icon:      o.str("icon"),
			Tooltip:   o.str("tooltip"),
			Component: render,
			Order:     o.num("order"),
			Group:     o.str("group"),
			Align:     types.Align(o.str("align")),
			OnClick:   o.callback("onClick"),
		}
		return func() error { return b.api.Button(localID, opts) }
	case types.KindFooterItem:
		opts := plugin.FooterOptions{
			Component: render,
			Order:     o.num("order"),
			Align:     types.Align(o.str("align")),
		}
		return func() error { return b.api.Footer(localID, opts) }
	case types.KindLeftPanelMenu:
		opts := plugin.LeftMenuOptions{
			Label:    label,
			Icon:     o.str("icon"),
			Order:    o.num("order"),
			Group:    o.str("group"),
			Viewport: o.str("viewport"),
			OnClick:  o.callback("onClick"),
		}
		return func() error { return b.api.LeftMenu(localID, opts) }
	}

	opts := plugin.Options{
		Kind:      kind,
		Component: render,
		Label:     label,
		Icon:      o.str("icon"),
		Order:     o.num("order"),
		Group:     o.str("group"),
		Category:  o.str("category"),
		Align:     types.Align(o.str("align")),
		Priority:  o.num("priority"),
		Tags:      o.list("tags"),
		Metadata:  o.metadata("metadata"),
	}
	return func() error { return b.api.Register(localID, opts) }
}

func (b *binding) register(call goja.FunctionCall) goja.Value {
	localID := call.Argument(0).String()
	o := b.r.options(call.Argument(1))
	kind := types.ComponentKind(o.str("kind"))
	if !kind.Valid() {
		b.r.throw(fmt.Errorf("unknown component kind %q", kind))
	}
	b.check(b.r.yield(b.registrar(kind, localID, o)))
	return goja.Undefined()
}

func (b *binding) unregister(call goja.FunctionCall) goja.Value {
	localID := call.Argument(0).String()
	var removed bool
	b.r.yield(func() error {
		removed = b.api.Unregister(localID)
		return nil
	})
	return b.r.vm.ToValue(removed)
}

func (b *binding) layout(call goja.FunctionCall) goja.Value {
	o := b.r.options(call.Argument(0))
	def := layout.Definition{
		Name:        o.str("name"),
		DisplayName: o.str("displayName"),
		Render:      o.render(o.str("name")),
		Order:       o.num("order"),
		Slots:       o.slots("slots"),
	}
	if def.Render.IsZero() {
		def.Render = types.NewRenderHandle(def.Name)
	}
	b.check(b.r.yield(func() error { return b.api.Layout(def) }))
	return goja.Undefined()
}

func (b *binding) setLayout(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	var ok bool
	b.r.yield(func() error {
		ok = b.api.SetLayout(name)
		return nil
	})
	return b.r.vm.ToValue(ok)
}

func (b *binding) open(call goja.FunctionCall) goja.Value {
	viewportID := call.Argument(0).String()
	o := b.r.options(call.Argument(1))
	opts := plugin.OpenOptions{
		Title:      o.str("title"),
		Props:      o.metadata("props"),
		Background: o.flag("background"),
	}
	b.check(b.r.yield(func() error { return b.api.Open(viewportID, opts) }))
	return goja.Undefined()
}

func (b *binding) emit(self bool) hostFunc {
	return func(call goja.FunctionCall) goja.Value {
		event := call.Argument(0).String()
		payload := exportValue(call.Argument(1))
		var delivered int
		b.r.yield(func() error {
			if self {
				delivered = b.api.EmitSelf(event, payload)
			} else {
				delivered = b.api.Emit(event, payload)
			}
			return nil
		})
		return b.r.vm.ToValue(delivered)
	}
}

// on subscribes a script function and returns a function that unsubscribes
func (b *binding) on(self bool) hostFunc {
	return func(call goja.FunctionCall) goja.Value {
		event := call.Argument(0).String()
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			b.r.throw(fmt.Errorf("on(%q): handler must be a function", event))
		}

		r := b.r
		handler := func(payload interface{}) {
			if _, err := r.Call(context.Background(), fn, payload); err != nil {
				r.logger.Warn("script event handler failed", zap.String("event", event), zap.Error(err))
			}
		}

		var unsubscribe func()
		b.r.yield(func() error {
			if self {
				unsubscribe = b.api.OnSelf(event, handler).Unsubscribe
			} else {
				unsubscribe = b.api.On(event, handler).Unsubscribe
			}
			return nil
		})
		return b.r.vm.ToValue(func(goja.FunctionCall) goja.Value {
			b.r.yield(func() error { unsubscribe(); return nil })
			return goja.Undefined()
		})
	}
}

func (b *binding) provide(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		b.r.throw(fmt.Errorf("provide(%q): handler must be a function", name))
	}

	r := b.r
	b.r.yield(func() error {
		b.api.Provide(name, func(ctx context.Context, input interface{}) (interface{}, error) {
			return r.Call(ctx, fn, input)
		})
		return nil
	})
	return goja.Undefined()
}

// call invokes a service synchronously, throwing on failure
func (b *binding) call(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	input := exportValue(call.Argument(1))

	var out interface{}
	b.check(b.r.yield(func() error {
		var err error
		out, err = b.api.Call(context.Background(), name, input)
		return err
	}))
	return b.r.vm.ToValue(out)
}

func (b *binding) onUpdate(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		b.r.throw(fmt.Errorf("onUpdate: callback must be a function"))
	}

	r := b.r
	b.r.yield(func() error {
		b.api.OnUpdate(func(data interface{}) {
			if _, err := r.Call(context.Background(), fn, data); err != nil {
				r.logger.Warn("script update callback failed", zap.Error(err))
			}
		})
		return nil
	})
	return goja.Undefined()
}

// check rethrows a host error inside the script
func (b *binding) check(err error) {
	if err != nil {
		b.r.throw(err)
	}
}
