package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pelletier/go-toml/v2"
)

// Format identifies a manifest encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}

// Manifest is a declarative plugin: identity plus the components, layouts
// and static services it contributes when started.
type Manifest struct {
	ID          string `yaml:"id" toml:"id" json:"id"`
	Name        string `yaml:"name" toml:"name" json:"name"`
	Version     string `yaml:"version" toml:"version" json:"version"`
	Description string `yaml:"description" toml:"description" json:"description,omitempty"`
	Author      string `yaml:"author" toml:"author" json:"author,omitempty"`
	Icon        string `yaml:"icon" toml:"icon" json:"icon,omitempty"`

	ActivateLayout string `yaml:"activate_layout" toml:"activate_layout" json:"activate_layout,omitempty"`

	Components []ComponentSpec `yaml:"components" toml:"components" json:"components,omitempty"`
	Layouts    []LayoutSpec    `yaml:"layouts" toml:"layouts" json:"layouts,omitempty"`
	Services   []ServiceSpec   `yaml:"services" toml:"services" json:"services,omitempty"`
}

// ComponentSpec declares one component. Fields that do not apply to the
// kind are ignored.
type ComponentSpec struct {
	ID          string                 `yaml:"id" toml:"id" json:"id"`
	Kind        types.ComponentKind    `yaml:"kind" toml:"kind" json:"kind"`
	Component   string                 `yaml:"component" toml:"component" json:"component,omitempty"`
	Label       string                 `yaml:"label" toml:"label" json:"label,omitempty"`
	Icon        string                 `yaml:"icon" toml:"icon" json:"icon,omitempty"`
	Order       int                    `yaml:"order" toml:"order" json:"order,omitempty"`
	Group       string                 `yaml:"group" toml:"group" json:"group,omitempty"`
	Category    string                 `yaml:"category" toml:"category" json:"category,omitempty"`
	Tags        []string               `yaml:"tags" toml:"tags" json:"tags,omitempty"`
	Align       types.Align            `yaml:"align" toml:"align" json:"align,omitempty"`
	Priority    int                    `yaml:"priority" toml:"priority" json:"priority,omitempty"`
	Tooltip     string                 `yaml:"tooltip" toml:"tooltip" json:"tooltip,omitempty"`
	Description string                 `yaml:"description" toml:"description" json:"description,omitempty"`
	Closable    bool                   `yaml:"closable" toml:"closable" json:"closable,omitempty"`
	Viewport    string                 `yaml:"viewport" toml:"viewport" json:"viewport,omitempty"` // Opened by a left menu entry
	Emit        string                 `yaml:"emit" toml:"emit" json:"emit,omitempty"`             // Event emitted on click
	Submenu     []MenuItemSpec         `yaml:"submenu" toml:"submenu" json:"submenu,omitempty"`
	Metadata    map[string]interface{} `yaml:"metadata" toml:"metadata" json:"metadata,omitempty"`
}

// MenuItemSpec is a submenu entry
type MenuItemSpec struct {
	ID      string         `yaml:"id" toml:"id" json:"id"`
	Label   string         `yaml:"label" toml:"label" json:"label"`
	Icon    string         `yaml:"icon" toml:"icon" json:"icon,omitempty"`
	Emit    string         `yaml:"emit" toml:"emit" json:"emit,omitempty"`
	Submenu []MenuItemSpec `yaml:"submenu" toml:"submenu" json:"submenu,omitempty"`
}

// LayoutSpec declares a layout contributed by the plugin
type LayoutSpec struct {
	Name        string           `yaml:"name" toml:"name" json:"name"`
	DisplayName string           `yaml:"display_name" toml:"display_name" json:"display_name,omitempty"`
	Component   string           `yaml:"component" toml:"component" json:"component,omitempty"`
	Order       int              `yaml:"order" toml:"order" json:"order,omitempty"`
	Slots       []types.SlotSpec `yaml:"slots" toml:"slots" json:"slots"`
}

// ServiceSpec declares a service that always answers with Response
type ServiceSpec struct {
	Name     string      `yaml:"name" toml:"name" json:"name"`
	Response interface{} `yaml:"response" toml:"response" json:"response"`
}

var textPolicy = bluemonday.StrictPolicy()

// Parse decodes and validates a manifest. Display text is stripped of any
// markup.
func Parse(data []byte, format Format) (*Manifest, error) {
	if err := utils.DefaultJSONValidator().ValidateSize(data); err != nil {
		return nil, fmt.Errorf("manifest too large: %w", err)
	}

	var m Manifest
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = sonic.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s manifest: %w", format, err)
	}

	m.sanitize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks component ids, kinds and layout slots
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Components))
	for i, c := range m.Components {
		field := fmt.Sprintf("components[%d]", i)
		if err := utils.ValidateID(c.ID, field+".id", true); err != nil {
			return err
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%s: duplicate component id %q", field, c.ID)
		}
		seen[c.ID] = struct{}{}

		if !c.Kind.Valid() {
			return fmt.Errorf("%s: unknown kind %q", field, c.Kind)
		}
		if c.Component != "" {
			if err := utils.ValidateComponentName(c.Component, field+".component"); err != nil {
				return err
			}
		}
		if err := utils.ValidateTags(c.Tags); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if c.Emit != "" {
			if err := utils.ValidateEventName(c.Emit, field+".emit"); err != nil {
				return err
			}
		}
	}

	for i, l := range m.Layouts {
		if l.Name == "" {
			return fmt.Errorf("layouts[%d]: name is required", i)
		}
		if l.Component != "" {
			if err := utils.ValidateComponentName(l.Component, fmt.Sprintf("layouts[%d].component", i)); err != nil {
				return err
			}
		}
		for j, s := range l.Slots {
			if s.Name == "" {
				return fmt.Errorf("layouts[%d].slots[%d]: name is required", i, j)
			}
			if !s.ShowTabs.Valid() {
				return fmt.Errorf("layouts[%d].slots[%d]: unknown tab policy %q", i, j, s.ShowTabs)
			}
		}
	}

	for i, s := range m.Services {
		if err := utils.ValidateEventName(s.Name, fmt.Sprintf("services[%d].name", i)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) sanitize() {
	m.Name = cleanText(m.Name)
	m.Description = cleanText(m.Description)
	m.Author = cleanText(m.Author)
	for i := range m.Components {
		c := &m.Components[i]
		c.Label = cleanText(c.Label)
		c.Tooltip = cleanText(c.Tooltip)
		c.Description = cleanText(c.Description)
		sanitizeMenu(c.Submenu)
	}
	for i := range m.Layouts {
		m.Layouts[i].DisplayName = cleanText(m.Layouts[i].DisplayName)
	}
}

func sanitizeMenu(items []MenuItemSpec) {
	for i := range items {
		items[i].Label = cleanText(items[i].Label)
		sanitizeMenu(items[i].Submenu)
	}
}

func cleanText(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
