package shell

import (
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/signal"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
)

// Collections holds one ordered reactive collection per component kind.
// Each is kept in step with the registry and consumed sorted by order with
// insertion order breaking ties.
type Collections struct {
	byKind map[types.ComponentKind]*signal.Ordered[types.Registration]
}

func newCollections() *Collections {
	c := &Collections{byKind: make(map[types.ComponentKind]*signal.Ordered[types.Registration])}
	for _, kind := range types.Kinds() {
		c.byKind[kind] = signal.NewOrdered(func(r types.Registration) int { return r.Order })
	}
	return c
}

// seed loads the registry's current contents in registration order
func (c *Collections) seed(reg *component.Registry) {
	for _, r := range reg.GetMany(reg.IDs()) {
		c.byKind[r.Kind].Set(r.FullID, r)
	}
}

func (c *Collections) apply(change component.Change) {
	col, ok := c.byKind[change.Registration.Kind]
	if !ok {
		return
	}
	switch change.Type {
	case component.ChangeRemoved:
		col.Delete(change.Registration.FullID)
	default:
		col.Set(change.Registration.FullID, change.Registration)
	}
}

// Of returns the collection for kind, nil for an unknown kind
func (c *Collections) Of(kind types.ComponentKind) *signal.Ordered[types.Registration] {
	return c.byKind[kind]
}

// Toolbar returns toolbar buttons
func (c *Collections) Toolbar() *signal.Ordered[types.Registration] {
	return c.byKind[types.KindToolbarButton]
}

// Menu returns top menu items
func (c *Collections) Menu() *signal.Ordered[types.Registration] {
	return c.byKind[types.KindMenuItem]
}

// Footer returns footer widgets
func (c *Collections) Footer() *signal.Ordered[types.Registration] {
	return c.byKind[types.KindFooterItem]
}

// BottomPanel returns bottom panel tabs
func (c *Collections) BottomPanel() *signal.Ordered[types.Registration] {
	return c.byKind[types.KindBottomPanelTab]
}

// Viewports returns viewport types
func (c *Collections) Viewports() *signal.Ordered[types.Registration] {
	return c.byKind[types.KindViewport]
}

// LeftMenu returns left panel menu entries
func (c *Collections) LeftMenu() *signal.Ordered[types.Registration] {
	return c.byKind[types.KindLeftPanelMenu]
}

// MenuGroups returns menu items grouped by Group in first-seen order
func (c *Collections) MenuGroups() []signal.Group[types.Registration] {
	return c.Menu().Groups(func(r types.Registration) string { return r.Group })
}

// ToolbarGroups returns toolbar buttons grouped by alignment
func (c *Collections) ToolbarGroups() []signal.Group[types.Registration] {
	return c.Toolbar().Groups(func(r types.Registration) string {
		if spec, ok := r.Payload.(types.ButtonSpec); ok && spec.Align != "" {
			return string(spec.Align)
		}
		return string(types.AlignLeft)
	})
}
