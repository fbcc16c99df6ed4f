package host

import (
	"context"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
)

// Source produces a plugin definition. Reload calls Load again, so file
// backed sources re-read their file every time. Name identifies the source
// within a loader.
type Source interface {
	Name() string
	Load(ctx context.Context) (*plugin.Definition, error)
}

// Fingerprinter is implemented by sources that can report a content hash.
// Watch reloads a plugin when its fingerprint changes.
type Fingerprinter interface {
	Fingerprint() (string, error)
}

type staticSource struct {
	name string
	def  *plugin.Definition
}

// Static wraps an already defined plugin, used for built-ins
func Static(name string, def *plugin.Definition) Source {
	return &staticSource{name: name, def: def}
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Load(context.Context) (*plugin.Definition, error) {
	return s.def, nil
}

// SourceFunc adapts a function to Source
type SourceFunc struct {
	SourceName string
	LoadFunc   func(ctx context.Context) (*plugin.Definition, error)
}

func (f SourceFunc) Name() string { return f.SourceName }

func (f SourceFunc) Load(ctx context.Context) (*plugin.Definition, error) {
	return f.LoadFunc(ctx)
}
