package plugin

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
)

var (
	// ErrLifecycle matches any *LifecycleError via errors.Is
	ErrLifecycle = errors.New("illegal plugin lifecycle transition")
	// ErrValidation matches any *ValidationError via errors.Is
	ErrValidation = errors.New("invalid plugin definition")
)

// LifecycleError reports an operation attempted from a state that does not
// allow it. The operation has no side effect.
type LifecycleError struct {
	PluginID string
	Op       string
	State    types.PluginState
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("plugin %q: cannot %s while %s", e.PluginID, e.Op, e.State)
}

func (e *LifecycleError) Unwrap() error { return ErrLifecycle }

// ValidationError is returned by Define when a required field is missing
// or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plugin %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// HookError wraps a failure returned by (or recovered from) a plugin hook
type HookError struct {
	PluginID string
	Hook     string
	Err      error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("plugin %q %s: %v", e.PluginID, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
