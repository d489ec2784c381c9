package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository owns the serialization boundary per account: every balance
// mutation locks the account row and writes the transaction row inside one
// database transaction. Nothing else in the codebase touches user_accounts.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// BeginTx starts a database transaction for composite operations (transfer,
// escrow, conversion) that span several ledger calls.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// EnsureAccount creates the account with balance 0 if it does not exist.
// Used at registration so every user has an account record eagerly.
func (r *Repository) EnsureAccount(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_accounts (user_id, current_balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

// LockAccount acquires the row lock for userID inside tx and returns the
// current committed balance. Composite operations call this up front, in a
// fixed order, before their ApplyTx legs.
func (r *Repository) LockAccount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	return r.lockAccount(ctx, tx, userID, false)
}

func (r *Repository) lockAccount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, autoCreate bool) (int64, error) {
	if autoCreate {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_accounts (user_id, current_balance)
			VALUES ($1, 0)
			ON CONFLICT (user_id) DO NOTHING
		`, userID); err != nil {
			return 0, fmt.Errorf("%w: ensure account: %v", ErrInternal, err)
		}
	}

	var balance int64
	err := tx.GetContext(ctx, &balance,
		`SELECT current_balance FROM user_accounts WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("%w: lock account row: %v", ErrInternal, err)
	}
	return balance, nil
}

// ApplyTx applies one signed balance mutation inside the caller's transaction:
// row lock, non-negative check, balance and counter update, transaction insert.
// It does NOT commit or rollback; the caller owns the transaction.
func (r *Repository) ApplyTx(ctx context.Context, tx *sqlx.Tx, p ApplyParams) (uuid.UUID, error) {
	if p.Amount == 0 {
		return uuid.Nil, ErrInvalidAmount
	}

	balance, err := r.lockAccount(ctx, tx, p.UserID, p.AutoCreate)
	if err != nil {
		return uuid.Nil, err
	}

	next := balance + p.Amount
	if next < 0 && !p.AllowNegative {
		return uuid.Nil, ErrInsufficientBalance
	}

	earned := int64(0)
	spent := int64(0)
	if p.Amount > 0 {
		earned = p.Amount
	} else {
		spent = -p.Amount
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_accounts
		SET current_balance = $2,
		    total_earned = total_earned + $3,
		    total_spent = total_spent + $4,
		    lifetime_earnings = lifetime_earnings + $3,
		    last_activity = now()
		WHERE user_id = $1
	`, p.UserID, next, earned, spent); err != nil {
		return uuid.Nil, fmt.Errorf("%w: update account: %v", ErrInternal, err)
	}

	txID, err := r.insertTransaction(ctx, tx, p)
	if err != nil {
		return uuid.Nil, err
	}
	return txID, nil
}

// Apply runs ApplyTx inside its own transaction. A commit-phase failure is
// reported as ErrIndeterminate: the transaction may have committed and the
// caller must re-query state instead of retrying blindly.
func (r *Repository) Apply(ctx context.Context, p ApplyParams) (uuid.UUID, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.BeginTx(ctx2)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: begin tx: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	txID, err := r.ApplyTx(ctx2, tx, p)
	if err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrIndeterminate, err)
	}
	return txID, nil
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, p ApplyParams) (uuid.UUID, error) {
	var metadata any
	if len(p.Metadata) > 0 {
		raw, err := json.Marshal(p.Metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: marshal metadata: %v", ErrInternal, err)
		}
		metadata = raw
	}

	var refID, refType any
	if p.Ref.ID != "" {
		refID = p.Ref.ID
	}
	if p.Ref.Type != "" {
		refType = p.Ref.Type
	}

	var fromUser, toUser any
	if p.FromUserID != uuid.Nil {
		fromUser = p.FromUserID
	}
	if p.ToUserID != uuid.Nil {
		toUser = p.ToUserID
	}

	var txID uuid.UUID
	err := tx.QueryRowContext(ctx, `
		INSERT INTO luminaria_transactions (
			user_id, type, amount, user_role, category, subcategory, action_type,
			description, reference_id, reference_type, from_user_id, to_user_id, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, p.UserID, string(p.Type), p.Amount, p.Class.UserRole, p.Class.Category,
		p.Class.Subcategory, p.Class.ActionType, p.Class.Description,
		refID, refType, fromUser, toUser, metadata).Scan(&txID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: insert transaction: %v", ErrInternal, err)
	}
	return txID, nil
}

// GetAccount returns the committed account state. No caching: every read
// hits the store.
func (r *Repository) GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var acc Account
	err := r.db.GetContext(ctx2, &acc, `
		SELECT user_id, current_balance, total_earned, total_spent, lifetime_earnings, last_activity
		FROM user_accounts
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: get account: %v", ErrInternal, err)
	}
	return &acc, nil
}

// ListTransactions returns a user's transaction history, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, f Filters, limit, offset int) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	base := `
		SELECT id, user_id, type, amount, user_role, category, subcategory, action_type,
		       description, reference_id, reference_type, from_user_id, to_user_id, metadata, created_at
		FROM luminaria_transactions
		WHERE user_id = $1`
	args := []interface{}{userID}
	idx := 2

	if f.Category != "" {
		base += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, f.Category)
		idx++
	}
	if f.Type != "" {
		base += fmt.Sprintf(" AND type = $%d", idx)
		args = append(args, f.Type)
		idx++
	}
	if f.DateFrom != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *f.DateFrom)
		idx++
	}
	if f.DateTo != nil {
		base += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *f.DateTo)
		idx++
	}

	base += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	transactions := make([]Transaction, 0)
	if err := r.db.SelectContext(ctx2, &transactions, base, args...); err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", ErrInternal, err)
	}
	return transactions, nil
}

// SearchTransactions returns filtered transactions across all users (admin use).
func (r *Repository) SearchTransactions(ctx context.Context, f SearchFilters) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT id, user_id, type, amount, user_role, category, subcategory, action_type,
		       description, reference_id, reference_type, from_user_id, to_user_id, metadata, created_at
		FROM luminaria_transactions
		WHERE 1=1`
	args := make([]interface{}, 0, 8)
	idx := 1

	if f.UserID != nil && *f.UserID != "" {
		base += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, *f.UserID)
		idx++
	}
	if f.Type != nil && *f.Type != "" {
		base += fmt.Sprintf(" AND type = $%d", idx)
		args = append(args, *f.Type)
		idx++
	}
	if f.Category != nil && *f.Category != "" {
		base += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, *f.Category)
		idx++
	}
	if f.ReferenceID != nil && *f.ReferenceID != "" {
		base += fmt.Sprintf(" AND reference_id = $%d", idx)
		args = append(args, *f.ReferenceID)
		idx++
	}
	if f.ReferenceType != nil && *f.ReferenceType != "" {
		base += fmt.Sprintf(" AND reference_type = $%d", idx)
		args = append(args, *f.ReferenceType)
		idx++
	}
	if f.DateFrom != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *f.DateFrom)
		idx++
	}
	if f.DateTo != nil {
		base += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *f.DateTo)
		idx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	base += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	transactions := make([]Transaction, 0)
	if err := r.db.SelectContext(ctx2, &transactions, base, args...); err != nil {
		return nil, fmt.Errorf("%w: search transactions: %v", ErrInternal, err)
	}
	return transactions, nil
}

// SumAmounts returns the sum of transaction amounts for an account. Used by
// integrity checks: the sum must always equal current_balance.
func (r *Repository) SumAmounts(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int64
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM luminaria_transactions WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: sum amounts: %v", ErrInternal, err)
	}
	return sum, nil
}
