package conversion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateConversion(ctx context.Context, tx *sqlx.Tx, req *ConversionRequest) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO conversion_requests (
			id, user_id, luminarias_amount, gross_amount, commission_amount, net_amount,
			payment_method, payment_details, status, transaction_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, req.ID, req.UserID, req.LuminariasAmount, req.GrossAmount, req.CommissionAmount,
		req.NetAmount, req.PaymentMethod, req.PaymentDetails, string(req.Status), req.TransactionID)
	if err != nil {
		return fmt.Errorf("create conversion request: %w", err)
	}
	return nil
}

// GetConversionForUpdate locks the request row so it is resolved exactly once.
func (r *Repository) GetConversionForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*ConversionRequest, error) {
	var req ConversionRequest
	err := tx.GetContext(ctx, &req, `SELECT * FROM conversion_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("lock conversion request: %w", err)
	}
	return &req, nil
}

func (r *Repository) ResolveConversion(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status RequestStatus, reviewedBy uuid.UUID, notes string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE conversion_requests
		SET status = $2, reviewed_by = $3, review_notes = $4, processed_at = now()
		WHERE id = $1
	`, id, string(status), reviewedBy, notes)
	if err != nil {
		return fmt.Errorf("resolve conversion request: %w", err)
	}
	return nil
}

func (r *Repository) GetConversion(ctx context.Context, id uuid.UUID) (*ConversionRequest, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var req ConversionRequest
	err := r.db.GetContext(ctx2, &req, `SELECT * FROM conversion_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("get conversion request: %w", err)
	}
	return &req, nil
}

func (r *Repository) ListConversionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ConversionRequest, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	requests := make([]ConversionRequest, 0)
	err := r.db.SelectContext(ctx2, &requests, `
		SELECT * FROM conversion_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list conversion requests: %w", err)
	}
	return requests, nil
}

func (r *Repository) ListPendingConversions(ctx context.Context, limit, offset int) ([]ConversionRequest, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	requests := make([]ConversionRequest, 0)
	err := r.db.SelectContext(ctx2, &requests, `
		SELECT * FROM conversion_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pending conversions: %w", err)
	}
	return requests, nil
}

func (r *Repository) CreateWithdrawal(ctx context.Context, tx *sqlx.Tx, req *WithdrawalRequest) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (
			id, user_id, original_amount, processing_fee, final_amount,
			payment_method, payment_details, status, transaction_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.UserID, req.OriginalAmount, req.ProcessingFee, req.FinalAmount,
		req.PaymentMethod, req.PaymentDetails, string(req.Status), req.TransactionID)
	if err != nil {
		return fmt.Errorf("create withdrawal request: %w", err)
	}
	return nil
}

func (r *Repository) GetWithdrawalForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*WithdrawalRequest, error) {
	var req WithdrawalRequest
	err := tx.GetContext(ctx, &req, `SELECT * FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("lock withdrawal request: %w", err)
	}
	return &req, nil
}

func (r *Repository) ResolveWithdrawal(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status WithdrawalStatus, reviewedBy uuid.UUID, notes string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $2, reviewed_by = $3, review_notes = $4, processed_at = now()
		WHERE id = $1
	`, id, string(status), reviewedBy, notes)
	if err != nil {
		return fmt.Errorf("resolve withdrawal request: %w", err)
	}
	return nil
}

func (r *Repository) ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]WithdrawalRequest, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	requests := make([]WithdrawalRequest, 0)
	err := r.db.SelectContext(ctx2, &requests, `
		SELECT * FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list withdrawal requests: %w", err)
	}
	return requests, nil
}

func (r *Repository) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]WithdrawalRequest, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	requests := make([]WithdrawalRequest, 0)
	err := r.db.SelectContext(ctx2, &requests, `
		SELECT * FROM withdrawal_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	return requests, nil
}
