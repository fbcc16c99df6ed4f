package types

// TabPolicy controls when a slot shows its tab bar
type TabPolicy string

const (
	TabsAlways TabPolicy = "always"
	TabsNever  TabPolicy = "never"
	TabsAuto   TabPolicy = "auto" // Shown iff more than one component resolves
)

// Valid reports whether p is a known policy. Empty counts as auto.
func (p TabPolicy) Valid() bool {
	switch p {
	case "", TabsAlways, TabsNever, TabsAuto:
		return true
	}
	return false
}

// SlotSpec declares a named region of a layout and the capabilities it hosts
type SlotSpec struct {
	Name         string    `json:"name" yaml:"name" toml:"name"`
	Capabilities []string  `json:"capabilities" yaml:"capabilities" toml:"capabilities"`
	ShowTabs     TabPolicy `json:"show_tabs,omitempty" yaml:"show_tabs" toml:"show_tabs"`
}
