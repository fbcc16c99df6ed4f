package component

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
)

var (
	// ErrDuplicateID matches any *DuplicateIDError via errors.Is
	ErrDuplicateID = errors.New("duplicate component id")
	// ErrKindChange matches any *KindChangeError via errors.Is
	ErrKindChange = errors.New("component kind is immutable")
)

// DuplicateIDError is returned when a full id is already registered and the
// caller did not ask to overwrite it.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("component %q is already registered", e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// KindChangeError is returned when an overwrite tries to change the kind of
// an existing registration.
type KindChangeError struct {
	ID   string
	From types.ComponentKind
	To   types.ComponentKind
}

func (e *KindChangeError) Error() string {
	return fmt.Sprintf("component %q is a %s and cannot become a %s", e.ID, e.From, e.To)
}

func (e *KindChangeError) Unwrap() error { return ErrKindChange }
