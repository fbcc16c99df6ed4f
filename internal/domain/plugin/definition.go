package plugin

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/utils"
	"golang.org/x/mod/semver"
)

// Hook runs during init or dispose
type Hook func(ctx context.Context) error

// APIHook runs during start or stop with the instance's bound API
type APIHook func(ctx context.Context, api *API) error

// UpdateHook receives data pushed to a started plugin
type UpdateHook func(ctx context.Context, api *API, data interface{}) error

// Config is what a plugin author passes to Define
type Config struct {
	ID          string
	Name        string
	Version     string
	Description string
	Author      string
	Icon        string

	OnInit    Hook
	OnStart   APIHook
	OnUpdate  UpdateHook
	OnStop    APIHook
	OnDispose Hook
}

// Definition is a validated, immutable plugin definition. Instantiate it
// once per load.
type Definition struct {
	descriptor types.PluginDescriptor
	cfg        Config
}

// Define validates cfg and returns the plugin definition. ID, Name and a
// semver Version are required.
func Define(cfg Config) (*Definition, error) {
	if cfg.ID == "" {
		return nil, &ValidationError{Field: "id", Reason: "is required"}
	}
	if err := utils.ValidateID(cfg.ID, "id", true); err != nil {
		return nil, &ValidationError{Field: "id", Reason: err.Error()}
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	if err := utils.ValidateString(cfg.Name, "name", 1, utils.MaxNameLength, true); err != nil {
		return nil, &ValidationError{Field: "name", Reason: err.Error()}
	}
	if cfg.Version == "" {
		return nil, &ValidationError{Field: "version", Reason: "is required"}
	}
	if !semver.IsValid(canonicalVersion(cfg.Version)) {
		return nil, &ValidationError{Field: "version", Reason: "must be a semantic version, got " + cfg.Version}
	}
	if err := utils.ValidateString(cfg.Description, "description", 0, utils.MaxDescriptionLength, false); err != nil {
		return nil, &ValidationError{Field: "description", Reason: err.Error()}
	}

	return &Definition{
		descriptor: types.PluginDescriptor{
			ID:          cfg.ID,
			Name:        cfg.Name,
			Version:     cfg.Version,
			Description: cfg.Description,
			Author:      cfg.Author,
			Icon:        cfg.Icon,
		},
		cfg: cfg,
	}, nil
}

// MustDefine is Define for built-in plugins. It panics on an invalid config.
func MustDefine(cfg Config) *Definition {
	def, err := Define(cfg)
	if err != nil {
		panic(err)
	}
	return def
}

// Descriptor returns the plugin's identity
func (d *Definition) Descriptor() types.PluginDescriptor {
	return d.descriptor
}

// ID returns the plugin id
func (d *Definition) ID() string {
	return d.descriptor.ID
}

// Instantiate creates a fresh uninitialized instance bound to deps
func (d *Definition) Instantiate(deps Deps) *Instance {
	return newInstance(d, deps)
}

// canonicalVersion accepts "1.2.3" as well as "v1.2.3"
func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// CompareVersions orders two plugin versions, -1, 0 or +1
func CompareVersions(a, b string) int {
	return semver.Compare(canonicalVersion(a), canonicalVersion(b))
}
