package conversion

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the review state of a conversion request. pending is the
// only non-terminal state; each request is resolved exactly once.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusProcessed RequestStatus = "processed"
	StatusRejected  RequestStatus = "rejected"
)

// WithdrawalStatus mirrors RequestStatus with the withdrawal terminal labels.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// ReviewAction is the administrator's decision on a pending request.
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

// ConversionRequest reserves Luminarias for exchange into real currency.
// The debit happens at creation; approval settles out-of-band, rejection
// refunds.
type ConversionRequest struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	UserID           uuid.UUID     `db:"user_id" json:"user_id"`
	LuminariasAmount int64         `db:"luminarias_amount" json:"luminarias_amount"`
	GrossAmount      int64         `db:"gross_amount" json:"gross_amount"`
	CommissionAmount int64         `db:"commission_amount" json:"commission_amount"`
	NetAmount        int64         `db:"net_amount" json:"net_amount"`
	PaymentMethod    string        `db:"payment_method" json:"payment_method"`
	PaymentDetails   string        `db:"payment_details" json:"payment_details"`
	Status           RequestStatus `db:"status" json:"status"`
	ReviewedBy       uuid.NullUUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNotes      *string       `db:"review_notes" json:"review_notes,omitempty"`
	TransactionID    uuid.NullUUID `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	ProcessedAt      *time.Time    `db:"processed_at" json:"processed_at,omitempty"`
}

// WithdrawalRequest is the direct spend-based withdrawal counterpart.
type WithdrawalRequest struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	UserID         uuid.UUID        `db:"user_id" json:"user_id"`
	OriginalAmount int64            `db:"original_amount" json:"original_amount"`
	ProcessingFee  int64            `db:"processing_fee" json:"processing_fee"`
	FinalAmount    int64            `db:"final_amount" json:"final_amount"`
	PaymentMethod  string           `db:"payment_method" json:"payment_method"`
	PaymentDetails string           `db:"payment_details" json:"payment_details"`
	Status         WithdrawalStatus `db:"status" json:"status"`
	ReviewedBy     uuid.NullUUID    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNotes    *string          `db:"review_notes" json:"review_notes,omitempty"`
	TransactionID  uuid.NullUUID    `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	ProcessedAt    *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}

// Quote is the computed payout breakdown for a conversion amount.
type Quote struct {
	LuminariasAmount int64 `json:"luminarias_amount"`
	GrossAmount      int64 `json:"gross_amount"`
	CommissionAmount int64 `json:"commission_amount"`
	NetAmount        int64 `json:"net_amount"`
}
