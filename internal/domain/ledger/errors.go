package ledger

import "errors"

var (
	// ErrInvalidAmount is returned when amount is zero, negative, or of the
	// wrong sign for the declared transaction type.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when a debit would push the balance
	// below zero. No partial debit is ever applied.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound is returned when the user has no account record and
	// auto-creation is disabled for the call site.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCategory is returned when the classification triple is not in
	// the configured taxonomy.
	ErrInvalidCategory = errors.New("unknown transaction category")

	// ErrIndeterminate is returned when an infrastructure failure during the
	// commit phase leaves the outcome unknown. Callers must re-query state
	// before retrying; a blind retry could double-apply.
	ErrIndeterminate = errors.New("operation outcome indeterminate")

	ErrInternal = errors.New("internal error")
)
