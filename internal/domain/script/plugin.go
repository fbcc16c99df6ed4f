package script

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/utils"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ErrNoPlugin is returned when a script does not call createPlugin exactly once
var ErrNoPlugin = errors.New("script must call createPlugin exactly once")

// hooks are the lifecycle functions found on the createPlugin object
type hooks struct {
	init, start, update, stop, dispose goja.Callable
}

// Define evaluates code and turns its createPlugin call into a plugin
// definition. The returned runtime backs every hook and callback of the
// plugin.
func Define(ctx context.Context, name, code string, config Config) (*plugin.Definition, *Runtime, error) {
	r := New(config)

	var spec goja.Value
	calls := 0
	r.vm.Set("createPlugin", func(call goja.FunctionCall) goja.Value {
		calls++
		spec = call.Argument(0)
		return spec
	})

	if _, err := r.Run(ctx, name, code); err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", name, err)
	}
	if calls != 1 {
		return nil, nil, fmt.Errorf("%s: %w", name, ErrNoPlugin)
	}

	var cfg plugin.Config
	var h hooks
	if err := r.enter(ctx, func() error {
		o := r.options(spec)
		if o.obj == nil {
			return fmt.Errorf("%s: createPlugin expects an object", name)
		}
		cfg = plugin.Config{
			ID:          o.str("id"),
			Name:        o.str("name"),
			Version:     o.str("version"),
			Description: o.str("description"),
			Author:      o.str("author"),
			Icon:        o.str("icon"),
		}
		h = hooks{
			init:    o.fn("onInit"),
			start:   o.fn("onStart"),
			update:  o.fn("onUpdate"),
			stop:    o.fn("onStop"),
			dispose: o.fn("onDispose"),
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}

	r.logger = r.logger.With(zap.String("plugin", cfg.ID))
	bindings := make(map[*plugin.API]*goja.Object)
	apiValue := func(api *plugin.API) goja.Value {
		obj, ok := bindings[api]
		if !ok {
			obj = (&binding{r: r, api: api}).object()
			bindings[api] = obj
		}
		return obj
	}

	if h.init != nil {
		cfg.OnInit = func(ctx context.Context) error {
			_, err := r.Call(ctx, h.init)
			return err
		}
	}
	if h.dispose != nil {
		cfg.OnDispose = func(ctx context.Context) error {
			_, err := r.Call(ctx, h.dispose)
			return err
		}
	}
	if h.start != nil {
		cfg.OnStart = func(ctx context.Context, api *plugin.API) error {
			_, err := r.invoke(ctx, h.start, func() []goja.Value {
				return []goja.Value{apiValue(api)}
			})
			return err
		}
	}
	if h.stop != nil {
		cfg.OnStop = func(ctx context.Context, api *plugin.API) error {
			_, err := r.invoke(ctx, h.stop, func() []goja.Value {
				return []goja.Value{apiValue(api)}
			})
			return err
		}
	}
	if h.update != nil {
		cfg.OnUpdate = func(ctx context.Context, api *plugin.API, data interface{}) error {
			_, err := r.invoke(ctx, h.update, func() []goja.Value {
				return []goja.Value{apiValue(api), r.vm.ToValue(data)}
			})
			return err
		}
	}

	def, err := plugin.Define(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return def, r, nil
}

// FileSource loads a script plugin from disk, evaluating it in a fresh
// runtime on every Load
type FileSource struct {
	path   string
	config Config
}

// NewFileSource creates a source for the script at path
func NewFileSource(path string, config Config) *FileSource {
	return &FileSource{path: path, config: config}
}

// Name returns the script path
func (s *FileSource) Name() string {
	return s.path
}

// Load reads and evaluates the script
func (s *FileSource) Load(ctx context.Context) (*plugin.Definition, error) {
	code, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	if err := utils.DefaultJSONValidator().ValidateSize(code); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	def, _, err := Define(ctx, s.path, string(code), s.config)
	return def, err
}

// Fingerprint hashes the script contents
func (s *FileSource) Fingerprint() (string, error) {
	code, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return utils.Fingerprint(code), nil
}
