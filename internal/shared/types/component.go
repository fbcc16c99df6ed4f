package types

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ComponentKind discriminates the payload carried by a Registration
type ComponentKind string

const (
	KindViewport        ComponentKind = "viewport"
	KindPanel           ComponentKind = "panel"
	KindToolbarButton   ComponentKind = "toolbar-button"
	KindFooterItem      ComponentKind = "footer-item"
	KindMenuItem        ComponentKind = "menu-item"
	KindLayoutComponent ComponentKind = "layout-component"
	KindBottomPanelTab  ComponentKind = "bottom-panel-tab"
	KindLeftPanelMenu   ComponentKind = "left-panel-menu"
)

// Kinds lists every known component kind in display order
func Kinds() []ComponentKind {
	return []ComponentKind{
		KindViewport,
		KindPanel,
		KindToolbarButton,
		KindFooterItem,
		KindMenuItem,
		KindLayoutComponent,
		KindBottomPanelTab,
		KindLeftPanelMenu,
	}
}

// Valid reports whether k is a known kind
func (k ComponentKind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Tag returns the capability tag every component of this kind satisfies
func (k ComponentKind) Tag() string {
	return string(k)
}

// IDSeparator joins a plugin id and a local component id
const IDSeparator = ":"

// FullID builds the registry key for a plugin-local component id
func FullID(pluginID, localID string) string {
	return pluginID + IDSeparator + localID
}

// SplitFullID splits a registry key into plugin id and local id
func SplitFullID(fullID string) (pluginID, localID string, ok bool) {
	pluginID, localID, ok = strings.Cut(fullID, IDSeparator)
	if !ok || pluginID == "" || localID == "" {
		return "", "", false
	}
	return pluginID, localID, true
}

// RenderFunc produces the frontend tree for a component. The host never
// inspects the returned value.
type RenderFunc func(ctx context.Context, props map[string]interface{}) (interface{}, error)

// RenderHandle is an opaque reference to a component's render entry point.
// Name is what the frontend resolves; fn is optional and used by host-side
// renderers (script plugins, tests).
type RenderHandle struct {
	name string
	fn   RenderFunc
}

// NewRenderHandle creates a handle resolved by name only
func NewRenderHandle(name string) RenderHandle {
	return RenderHandle{name: name}
}

// NewRenderFunc creates a handle backed by a host-side render function
func NewRenderFunc(name string, fn RenderFunc) RenderHandle {
	return RenderHandle{name: name, fn: fn}
}

// Name returns the component name the frontend resolves
func (h RenderHandle) Name() string { return h.name }

// IsZero reports whether the handle references nothing
func (h RenderHandle) IsZero() bool { return h.name == "" && h.fn == nil }

// Invoke calls the render function. A panic inside the component is turned
// into an error so siblings keep rendering.
func (h RenderHandle) Invoke(ctx context.Context, props map[string]interface{}) (out interface{}, err error) {
	if h.fn == nil {
		return map[string]interface{}{"component": h.name, "props": props}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("component %q panicked: %v", h.name, r)
		}
	}()
	return h.fn(ctx, props)
}

// MarshalJSON exposes only the component name
func (h RenderHandle) MarshalJSON() ([]byte, error) {
	return sonic.ConfigStd.Marshal(strings.ToValidUTF8(h.name, "\uFFFD"))
}

// Payload is the kind-specific part of a registration
type Payload interface {
	Kind() ComponentKind
}

// Registration is a component contributed by a plugin
type Registration struct {
	FullID   string                 `json:"id"`
	PluginID string                 `json:"plugin_id"`
	LocalID  string                 `json:"local_id"`
	Kind     ComponentKind          `json:"kind"`
	Render   RenderHandle           `json:"component"`
	Label    string                 `json:"label,omitempty"`
	Icon     string                 `json:"icon,omitempty"`
	Order    int                    `json:"order"`
	Group    string                 `json:"group,omitempty"`
	Category string                 `json:"category,omitempty"`
	Tags     []string               `json:"tags,omitempty"` // Extra capability tags
	Payload  Payload                `json:"payload,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Capabilities returns every tag the registration satisfies: its kind, its
// explicit tags and its own full id.
func (r Registration) Capabilities() []string {
	seen := make(map[string]struct{}, len(r.Tags)+2)
	caps := make([]string, 0, len(r.Tags)+2)
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		caps = append(caps, tag)
	}
	add(r.Kind.Tag())
	for _, t := range r.Tags {
		add(t)
	}
	add(r.FullID)
	return caps
}

// Validate checks structural invariants before the registry accepts it
func (r Registration) Validate() error {
	if r.FullID == "" {
		return fmt.Errorf("component id is required")
	}
	pluginID, localID, ok := SplitFullID(r.FullID)
	if !ok {
		return fmt.Errorf("component id %q must have the form <plugin>:<local>", r.FullID)
	}
	if r.PluginID != "" && r.PluginID != pluginID {
		return fmt.Errorf("component id %q does not belong to plugin %q", r.FullID, r.PluginID)
	}
	if r.LocalID != "" && r.LocalID != localID {
		return fmt.Errorf("component id %q does not match local id %q", r.FullID, r.LocalID)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("component %q has unknown kind %q", r.FullID, r.Kind)
	}
	if r.Payload != nil && r.Payload.Kind() != r.Kind {
		return fmt.Errorf("component %q payload is %s, expected %s", r.FullID, r.Payload.Kind(), r.Kind)
	}
	return nil
}

// Normalize fills PluginID and LocalID from FullID
func (r Registration) Normalize() Registration {
	if pluginID, localID, ok := SplitFullID(r.FullID); ok {
		r.PluginID = pluginID
		r.LocalID = localID
	}
	return r
}

// Clone returns a copy that does not share slices or maps with r
func (r Registration) Clone() Registration {
	if r.Tags != nil {
		r.Tags = append([]string(nil), r.Tags...)
	}
	if r.Metadata != nil {
		md := make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			md[k] = v
		}
		r.Metadata = md
	}
	return r
}
