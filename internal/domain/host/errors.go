package host

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPluginNotFound is returned for an id the loader does not know
	ErrPluginNotFound = errors.New("plugin not loaded")
	// ErrAlreadyLoaded is returned when a second source defines a loaded id
	ErrAlreadyLoaded = errors.New("plugin already loaded")
	// ErrCollateralRemoval matches any *CollateralRemovalError via errors.Is
	ErrCollateralRemoval = errors.New("hot reload removed unrelated components")
)

// CollateralRemovalError is returned by Reload when ids owned by other
// plugins disappeared during the swap
type CollateralRemovalError struct {
	PluginID string
	Missing  []string
}

func (e *CollateralRemovalError) Error() string {
	return fmt.Sprintf("reloading %q removed unrelated components: %s", e.PluginID, strings.Join(e.Missing, ", "))
}

func (e *CollateralRemovalError) Unwrap() error { return ErrCollateralRemoval }
