package marketplace

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the escrow state of a booking. confirmed is the only
// non-terminal state.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// ServiceListing is a user-to-user service offered for a fixed price.
// MaxClients of 0 means unbounded capacity.
type ServiceListing struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ProviderID     uuid.UUID `db:"provider_id" json:"provider_id"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	Price          int64     `db:"price" json:"price"`
	MaxClients     int       `db:"max_clients" json:"max_clients"`
	CurrentClients int       `db:"current_clients" json:"current_clients"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Booking links a client, a provider, a listing, and the escrow debit
// transaction. The client is debited at creation; the provider is paid
// (minus commission) on completion.
type Booking struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	ServiceID     uuid.UUID     `db:"service_id" json:"service_id"`
	ClientID      uuid.UUID     `db:"client_id" json:"client_id"`
	ProviderID    uuid.UUID     `db:"provider_id" json:"provider_id"`
	TransactionID uuid.NullUUID `db:"transaction_id" json:"transaction_id,omitempty"`
	TotalPrice    int64         `db:"total_price" json:"total_price"`
	Status        BookingStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	CompletedAt   *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt   *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
}
