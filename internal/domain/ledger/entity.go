package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType defines supported ledger transaction types.
type TransactionType string

const (
	TypeEarn        TransactionType = "earn"
	TypeSpend       TransactionType = "spend"
	TypeTransferIn  TransactionType = "transfer_in"
	TypeTransferOut TransactionType = "transfer_out"
	TypeConversion  TransactionType = "conversion"
)

// Debits reports whether the type removes Luminarias from the account.
// Callers pass positive magnitudes; the core negates for debiting types.
func (t TransactionType) Debits() bool {
	switch t {
	case TypeSpend, TypeTransferOut, TypeConversion:
		return true
	}
	return false
}

// Valid reports whether the type is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeEarn, TypeSpend, TypeTransferIn, TypeTransferOut, TypeConversion:
		return true
	}
	return false
}

// Account is the single mutable balance record per user. Mutated only by
// this package, inside one database transaction per logical operation.
type Account struct {
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	CurrentBalance   int64     `db:"current_balance" json:"current_balance"`
	TotalEarned      int64     `db:"total_earned" json:"total_earned"`
	TotalSpent       int64     `db:"total_spent" json:"total_spent"`
	LifetimeEarnings int64     `db:"lifetime_earnings" json:"lifetime_earnings"`
	LastActivity     time.Time `db:"last_activity" json:"last_activity"`
}

// JSONRawMessage handles NULL json fields from DB
type JSONRawMessage []byte

func (j *JSONRawMessage) Scan(src any) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = []byte(v)
	default:
		return fmt.Errorf("unsupported type: %T", src)
	}
	return nil
}

func (j JSONRawMessage) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// Transaction is an append-only ledger row. Rows are never updated or
// deleted; corrections are new offsetting transactions.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Type          TransactionType `db:"type" json:"type"`
	Amount        int64           `db:"amount" json:"amount"`
	UserRole      string          `db:"user_role" json:"user_role,omitempty"`
	Category      string          `db:"category" json:"category"`
	Subcategory   string          `db:"subcategory" json:"subcategory,omitempty"`
	ActionType    string          `db:"action_type" json:"action_type,omitempty"`
	Description   string          `db:"description" json:"description,omitempty"`
	ReferenceID   *string         `db:"reference_id" json:"reference_id,omitempty"`
	ReferenceType *string         `db:"reference_type" json:"reference_type,omitempty"`
	FromUserID    uuid.NullUUID   `db:"from_user_id" json:"from_user_id,omitempty"`
	ToUserID      uuid.NullUUID   `db:"to_user_id" json:"to_user_id,omitempty"`
	Metadata      JSONRawMessage  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Classification carries audit metadata for a transaction. It never drives
// control flow; only taxonomy membership is checked.
type Classification struct {
	UserRole    string
	Category    string
	Subcategory string
	ActionType  string
	Description string
}

// Reference is an opaque link to the entity that caused the transaction.
type Reference struct {
	ID   string
	Type string
}

// ApplyParams describes one balance mutation.
type ApplyParams struct {
	UserID     uuid.UUID
	Type       TransactionType
	Amount     int64 // signed: positive credits, negative debits
	Class      Classification
	Ref        Reference
	FromUserID uuid.UUID // transfer legs only
	ToUserID   uuid.UUID // transfer legs only
	Metadata   map[string]any

	// AllowNegative permits the balance to go below zero. Reachable only
	// through the audited admin adjustment path.
	AllowNegative bool

	// AutoCreate creates the account with balance 0 when missing instead
	// of failing with ErrAccountNotFound.
	AutoCreate bool
}

// Filters narrows transaction listings.
type Filters struct {
	Category string
	Type     string
	DateFrom *time.Time
	DateTo   *time.Time
}

// SearchFilters provides admin-facing transaction filtering.
type SearchFilters struct {
	UserID        *string
	Type          *string
	Category      *string
	ReferenceID   *string
	ReferenceType *string
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}
