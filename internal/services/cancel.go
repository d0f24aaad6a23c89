package services

import (
	"fmt"

	"go.uber.org/multierr"
)

// CancelError reports every sub-step of a sale cancellation that failed.
// The cancellation itself was rolled back.
type CancelError struct {
	SaleID string
	Err    error
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("cancel sale %s: %v", e.SaleID, e.Err)
}

// Steps lists the individual failures.
func (e *CancelError) Steps() []error {
	return multierr.Errors(e.Err)
}

func (e *CancelError) Unwrap() []error {
	return e.Steps()
}
