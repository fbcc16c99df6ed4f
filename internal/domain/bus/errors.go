package bus

import (
	"errors"
	"fmt"
)

// ErrServiceNotFound matches any *ServiceNotFoundError via errors.Is
var ErrServiceNotFound = errors.New("service not found")

// ServiceNotFoundError is returned by Call when no handler is provided for
// the name. Callers treat it as "dependency not loaded yet".
type ServiceNotFoundError struct {
	Name string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("no handler provided for service %q", e.Name)
}

func (e *ServiceNotFoundError) Unwrap() error { return ErrServiceNotFound }

// IsServiceNotFound reports whether err is a missing-service error
func IsServiceNotFound(err error) bool {
	return errors.Is(err, ErrServiceNotFound)
}
