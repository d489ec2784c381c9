package marketplace

import "errors"

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInactiveService is returned when booking a deactivated listing.
	ErrInactiveService = errors.New("service is not active")

	// ErrOwnService is returned when a provider tries to book their own listing.
	ErrOwnService = errors.New("cannot book own service")

	// ErrCapacityExceeded is returned when the provider's active-client
	// capacity is full.
	ErrCapacityExceeded = errors.New("service capacity exceeded")

	// ErrInvalidState is returned when complete/cancel is invoked on a
	// booking that is not in the confirmed state. No ledger call is made.
	ErrInvalidState = errors.New("booking is not in a valid state for this action")

	// ErrNotProvider is returned when someone other than the booking's
	// provider tries to complete it.
	ErrNotProvider = errors.New("only the booking provider may perform this action")

	// ErrNotParticipant is returned when the actor is neither the client nor
	// the provider of the booking.
	ErrNotParticipant = errors.New("not a participant of this booking")
)
