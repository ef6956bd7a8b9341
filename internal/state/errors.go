package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/prodtask/internal/validate"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrProtectedUser is returned when deleting an administrator account.
	ErrProtectedUser = errors.New("administrator accounts cannot be deleted")

	// ErrStorageCorrupt wraps a persisted document that failed to decode.
	ErrStorageCorrupt = errors.New("stored document is corrupt")
)

// ValidationError reports the required fields that were missing or invalid
// on a create operation. Nothing is written when it is returned.
type ValidationError struct {
	Fields []string
	cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Unwrap exposes the underlying field errors.
func (e *ValidationError) Unwrap() error { return e.cause }

func newValidationError(err error) error {
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		return &ValidationError{Fields: fe.Fields(), cause: err}
	}
	return &ValidationError{cause: err}
}
