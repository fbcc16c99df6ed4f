package types

// Callback is a host-side action hook (click, activate). Plugins bridged from
// script runtimes install closures that re-enter their VM.
type Callback func()

// ViewportSpec describes a main-content component that can be opened as a tab
type ViewportSpec struct {
	Description  string   `json:"description,omitempty"`
	OnActivate   Callback `json:"-"`
	OnDeactivate Callback `json:"-"`
}

func (ViewportSpec) Kind() ComponentKind { return KindViewport }

// PanelSpec describes a side or bottom panel tab
type PanelSpec struct {
	Closable bool `json:"closable"`
}

func (PanelSpec) Kind() ComponentKind { return KindPanel }

// BottomTabSpec describes a bottom panel tab
type BottomTabSpec struct {
	Closable bool `json:"closable"`
}

func (BottomTabSpec) Kind() ComponentKind { return KindBottomPanelTab }

// MenuEntry is a nested submenu entry
type MenuEntry struct {
	ID      string      `json:"id"`
	Label   string      `json:"label"`
	Icon    string      `json:"icon,omitempty"`
	Submenu []MenuEntry `json:"submenu,omitempty"`
	OnClick Callback    `json:"-"`
}

// MenuSpec describes a top menu item
type MenuSpec struct {
	Submenu []MenuEntry `json:"submenu,omitempty"`
	OnClick Callback    `json:"-"`
}

func (MenuSpec) Kind() ComponentKind { return KindMenuItem }

// LeftMenuSpec describes an entry in the left panel menu
type LeftMenuSpec struct {
	Viewport string   `json:"viewport,omitempty"` // Viewport opened on click
	OnClick  Callback `json:"-"`
}

func (LeftMenuSpec) Kind() ComponentKind { return KindLeftPanelMenu }

// Align positions toolbar and footer items
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// ButtonSpec describes a toolbar button
type ButtonSpec struct {
	Tooltip string   `json:"tooltip,omitempty"`
	Align   Align    `json:"align,omitempty"`
	OnClick Callback `json:"-"`
}

func (ButtonSpec) Kind() ComponentKind { return KindToolbarButton }

// FooterSpec describes a footer widget
type FooterSpec struct {
	Align Align `json:"align,omitempty"`
}

func (FooterSpec) Kind() ComponentKind { return KindFooterItem }

// LayoutComponentSpec describes a generic component mounted by the layout
type LayoutComponentSpec struct {
	Align    Align `json:"align,omitempty"`
	Priority int   `json:"priority"`
}

func (LayoutComponentSpec) Kind() ComponentKind { return KindLayoutComponent }
