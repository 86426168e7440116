package terrain

import (
	"errors"
	"fmt"

	"active-terrain/internal/core"
)

// ErrNotRegistered is wrapped by LookupError.
var ErrNotRegistered = errors.New("no terrain instance registered")

// LookupError reports a removal for a cell the registry does not track. It
// means a mutation notification was missed or sent for the wrong cell.
type LookupError struct {
	Cell core.Cell
	// Kind is the host's current terrain name at Cell, when known.
	Kind string
}

func (e *LookupError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("terrain: %v at %v", ErrNotRegistered, e.Cell)
	}
	return fmt.Sprintf("terrain: %v at %v (grid kind %s)", ErrNotRegistered, e.Cell, e.Kind)
}

func (e *LookupError) Unwrap() error { return ErrNotRegistered }
