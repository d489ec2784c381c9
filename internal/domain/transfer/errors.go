package transfer

import "errors"

var (
	// ErrInvalidTarget is returned for self-transfers and transfers to a
	// non-existent counterpart.
	ErrInvalidTarget = errors.New("invalid transfer target")
)
