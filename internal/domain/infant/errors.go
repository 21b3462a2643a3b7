package infant

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an update or read targets an unknown
	// infant record id.
	ErrNotFound = errors.New("infant not found")

	// ErrOutOfScope is returned when a facility- or district-scoped actor
	// targets an infant outside its own facility/district. Denial is
	// explicit, never a silent no-op.
	ErrOutOfScope = errors.New("infant outside caller scope")

	// ErrInvalidDate is returned when registration carries a missing or
	// future date of birth.
	ErrInvalidDate = errors.New("invalid date of birth")

	// ErrMissingScope is returned when a facility-role actor with no
	// facility assignment attempts to register an infant. This guards
	// against malformed user state.
	ErrMissingScope = errors.New("facility user has no facility assignment")

	// ErrDuplicateRecordID is returned by Create when the allocated
	// record id lost a race to a concurrent registration. Register
	// re-allocates and retries.
	ErrDuplicateRecordID = errors.New("record id already taken")
)

// ValidationError identifies the registration field that failed validation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid registration: %s is required", e.Field)
}
