package conversion

import "errors"

var (
	// ErrOutOfRange is returned when the amount falls outside the configured
	// conversion band.
	ErrOutOfRange = errors.New("amount outside the allowed conversion range")

	// ErrNotEligible is returned when the user's creator tier does not meet
	// the minimum level for conversions.
	ErrNotEligible = errors.New("user is not eligible for conversion")

	// ErrAlreadyProcessed is returned on re-review of a non-pending request.
	// The second review produces no ledger side effects.
	ErrAlreadyProcessed = errors.New("request already processed")

	ErrRequestNotFound = errors.New("request not found")
)
