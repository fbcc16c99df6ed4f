package script

import (
	"context"
	"strconv"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// options reads fields of a script object. Missing, null and undefined
// fields yield zero values. Only valid while holding the token.
type options struct {
	r   *Runtime
	obj *goja.Object
}

func (r *Runtime) options(v goja.Value) options {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return options{r: r}
	}
	return options{r: r, obj: v.ToObject(r.vm)}
}

func (o options) get(key string) goja.Value {
	if o.obj == nil {
		return nil
	}
	v := o.obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v
}

func (o options) str(key string) string {
	if v := o.get(key); v != nil {
		return v.String()
	}
	return ""
}

func (o options) num(key string) int {
	if v := o.get(key); v != nil {
		return int(v.ToInteger())
	}
	return 0
}

func (o options) flag(key string) bool {
	if v := o.get(key); v != nil {
		return v.ToBoolean()
	}
	return false
}

func (o options) list(key string) []string {
	var out []string
	o.each(key, func(v goja.Value) { out = append(out, v.String()) })
	return out
}

func (o options) fn(key string) goja.Callable {
	v := o.get(key)
	if v == nil {
		return nil
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil
	}
	return fn
}

func (o options) object(key string) options {
	return o.r.options(o.get(key))
}

func (o options) each(key string, visit func(goja.Value)) {
	v := o.get(key)
	if v == nil {
		return
	}
	arr := v.ToObject(o.r.vm)
	n := int(arr.Get("length").ToInteger())
	for i := 0; i < n; i++ {
		visit(arr.Get(strconv.Itoa(i)))
	}
}

func (o options) metadata(key string) map[string]interface{} {
	v := o.get(key)
	if v == nil {
		return nil
	}
	md, _ := v.Export().(map[string]interface{})
	return md
}

// render resolves the "render" function or the "component" name. A render
// function is called back on the runtime when the host renders.
func (o options) render(fallback string) types.RenderHandle {
	name := o.str("component")
	if name == "" {
		name = fallback
	}
	if fn := o.fn("render"); fn != nil {
		r := o.r
		return types.NewRenderFunc(name, func(ctx context.Context, props map[string]interface{}) (interface{}, error) {
			return r.Call(ctx, fn, props)
		})
	}
	if o.str("component") == "" {
		return types.RenderHandle{}
	}
	return types.NewRenderHandle(name)
}

// callback turns the function under key into a host callback
func (o options) callback(key string, args ...interface{}) types.Callback {
	fn := o.fn(key)
	if fn == nil {
		return nil
	}
	return o.r.callback(key, fn, args...)
}

func (r *Runtime) callback(what string, fn goja.Callable, args ...interface{}) types.Callback {
	return func() {
		if _, err := r.Call(context.Background(), fn, args...); err != nil {
			r.logger.Warn("script callback failed", zap.String("callback", what), zap.Error(err))
		}
	}
}

func (o options) menuEntries(key string) []types.MenuEntry {
	var out []types.MenuEntry
	o.each(key, func(v goja.Value) {
		item := o.r.options(v)
		out = append(out, types.MenuEntry{
			ID:      item.str("id"),
			Label:   item.str("label"),
			Icon:    item.str("icon"),
			Submenu: item.menuEntries("submenu"),
			OnClick: item.callback("onClick"),
		})
	})
	return out
}

func (o options) slots(key string) []types.SlotSpec {
	var out []types.SlotSpec
	o.each(key, func(v goja.Value) {
		s := o.r.options(v)
		out = append(out, types.SlotSpec{
			Name:         s.str("name"),
			Capabilities: s.list("capabilities"),
			ShowTabs:     types.TabPolicy(s.str("showTabs")),
		})
	})
	return out
}
