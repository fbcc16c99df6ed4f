package types

// PluginDescriptor identifies a plugin. Immutable after definition.
type PluginDescriptor struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Version     string `json:"version" yaml:"version" toml:"version"`
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
	Author      string `json:"author,omitempty" yaml:"author" toml:"author"`
	Icon        string `json:"icon,omitempty" yaml:"icon" toml:"icon"`
}

// PluginState represents plugin lifecycle states
type PluginState string

const (
	PluginUninitialized PluginState = "uninitialized"
	PluginInitialized   PluginState = "initialized"
	PluginStarted       PluginState = "started"
	PluginStopped       PluginState = "stopped"
	PluginDisposed      PluginState = "disposed"
)

// PluginStatus is the introspection view of a plugin instance
type PluginStatus struct {
	PluginDescriptor
	InstanceID  string      `json:"instance_id"`
	State       PluginState `json:"state"`
	Initialized bool        `json:"initialized"`
	Started     bool        `json:"started"`
	Components  []string    `json:"components"`
	Source      string      `json:"source,omitempty"`
	LastError   string      `json:"last_error,omitempty"`
}
