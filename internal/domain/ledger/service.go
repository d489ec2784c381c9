package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// TxOptions carries the optional fields of a transaction applied inside a
// caller-owned database transaction.
type TxOptions struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Metadata   map[string]any
}

// Service validates and applies ledger transactions. It is the only entry
// point for balance mutations; transfer, marketplace and conversion services
// are implemented purely in terms of it.
type Service struct {
	repo *Repository
	tax  *Taxonomy
}

func NewService(repo *Repository, tax *Taxonomy) *Service {
	if tax == nil {
		tax = DefaultTaxonomy()
	}
	return &Service{repo: repo, tax: tax}
}

// Repo exposes the repository to sibling services that compose several
// ledger legs inside one database transaction.
func (s *Service) Repo() *Repository {
	return s.repo
}

// Taxonomy returns the configured classification taxonomy.
func (s *Service) Taxonomy() *Taxonomy {
	return s.tax
}

// Apply validates and applies a single transaction. amount is a positive
// magnitude; the sign is derived from the transaction type. Earning types
// auto-create the account on first mutation; debiting types require an
// existing account.
func (s *Service) Apply(ctx context.Context, userID uuid.UUID, typ TransactionType, amount int64, class Classification, ref Reference, metadata map[string]any) (uuid.UUID, error) {
	signed, err := s.signAmount(typ, amount, class)
	if err != nil {
		return uuid.Nil, err
	}

	txID, err := s.repo.Apply(ctx, ApplyParams{
		UserID:     userID,
		Type:       typ,
		Amount:     signed,
		Class:      class,
		Ref:        ref,
		Metadata:   metadata,
		AutoCreate: !typ.Debits(),
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("type", string(typ)).
		Int64("amount", signed).
		Str("category", class.Category).
		Str("tx_id", txID.String()).
		Msg("ledger transaction applied")
	return txID, nil
}

// ApplyTx is the same validation and sign discipline as Apply, executed
// inside a caller-owned transaction. Used by the transfer, marketplace and
// conversion services so their composite operations stay atomic.
func (s *Service) ApplyTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, typ TransactionType, amount int64, class Classification, ref Reference, p TxOptions) (uuid.UUID, error) {
	signed, err := s.signAmount(typ, amount, class)
	if err != nil {
		return uuid.Nil, err
	}

	return s.repo.ApplyTx(ctx, tx, ApplyParams{
		UserID:     userID,
		Type:       typ,
		Amount:     signed,
		Class:      class,
		Ref:        ref,
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Metadata:   p.Metadata,
		AutoCreate: !typ.Debits(),
	})
}

func (s *Service) signAmount(typ TransactionType, amount int64, class Classification) (int64, error) {
	if !typ.Valid() {
		return 0, ErrInvalidAmount
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if !s.tax.Allows(class) {
		return 0, ErrInvalidCategory
	}
	if typ.Debits() {
		return -amount, nil
	}
	return amount, nil
}

// AdminAdjust applies a signed correction that may push the balance negative.
// This path is explicit and separately audited; it is never reachable from
// standard earn/spend callers.
func (s *Service) AdminAdjust(ctx context.Context, adminID, userID uuid.UUID, delta int64, notes string) (uuid.UUID, error) {
	if delta == 0 {
		return uuid.Nil, ErrInvalidAmount
	}

	typ := TypeEarn
	if delta < 0 {
		typ = TypeSpend
	}

	txID, err := s.repo.Apply(ctx, ApplyParams{
		UserID: userID,
		Type:   typ,
		Amount: delta,
		Class: Classification{
			UserRole:    "admin",
			Category:    "admin",
			Subcategory: "adjustment",
			ActionType:  "correction",
			Description: notes,
		},
		Metadata:      map[string]any{"adjusted_by": adminID.String()},
		AllowNegative: true,
		AutoCreate:    true,
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Warn().
		Str("admin_id", adminID.String()).
		Str("user_id", userID.String()).
		Int64("delta", delta).
		Str("tx_id", txID.String()).
		Msg("admin balance adjustment applied")
	return txID, nil
}

// GetBalance returns the committed account state.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, userID)
}

// EnsureAccount eagerly creates the account record (used at registration).
func (s *Service) EnsureAccount(ctx context.Context, userID uuid.UUID) error {
	return s.repo.EnsureAccount(ctx, userID)
}

// ListTransactions returns a user's paginated transaction history.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, f Filters, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, f, limit, offset)
}

// SearchTransactions returns filtered transactions across users (admin use).
func (s *Service) SearchTransactions(ctx context.Context, f SearchFilters) ([]Transaction, error) {
	return s.repo.SearchTransactions(ctx, f)
}

// CheckIntegrity verifies that current_balance equals the sum of transaction
// amounts for the account.
func (s *Service) CheckIntegrity(ctx context.Context, userID uuid.UUID) (bool, error) {
	acc, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return false, err
	}
	sum, err := s.repo.SumAmounts(ctx, userID)
	if err != nil {
		return false, err
	}
	return acc.CurrentBalance == sum, nil
}
