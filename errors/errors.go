package errors

import (
	"fmt"
	"strings"
)

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrValidation          = fmt.Errorf("validation failed")
	ErrConflict            = fmt.Errorf("participant already exists")
	ErrNotFound            = fmt.Errorf("participant not found")
	ErrSenderNotRegistered = fmt.Errorf("sender is not a registered participant")
	ErrStorageUnavailable  = fmt.Errorf("storage unavailable")
)

// ValidationError carries every violated rule of a rejected record, in field order.
type ValidationError struct {
	Details []string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(v.Details, "; "))
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (v *ValidationError) Unwrap() error {
	return ErrValidation
}
