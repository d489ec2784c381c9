package conversion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/luminaria/luminaria-api/internal/domain/ledger"
)

// LevelProvider reports a user's creator-tier level. Implemented by the
// user repository; the conversion service never reads user rows directly.
type LevelProvider interface {
	CreatorLevel(ctx context.Context, userID uuid.UUID) (int, error)
}

// Config holds the conversion and withdrawal economy knobs.
type Config struct {
	Min           int64 // Luminarias, band lower bound
	Max           int64 // Luminarias, band upper bound
	PayoutMin     int64 // currency minor units at the band minimum
	PayoutMax     int64 // currency minor units at the band maximum
	CommissionPct int
	MinLevel      int

	WithdrawalMin    int64
	WithdrawalFeePct int
}

// Service runs the conversion and withdrawal request/approval state
// machines. Funds are reserved (debited) the moment a request is created;
// an administrator later settles or refunds, exactly once.
type Service struct {
	repo   *Repository
	ledger *ledger.Service
	levels LevelProvider
	cfg    Config
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, levels LevelProvider, cfg Config) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, levels: levels, cfg: cfg}
}

// QuoteConversion computes the payout breakdown for an amount inside the
// band. The gross payout is interpolated linearly between the band's
// endpoint payouts.
func (s *Service) QuoteConversion(amount int64) (Quote, error) {
	if amount < s.cfg.Min || amount > s.cfg.Max {
		return Quote{}, ErrOutOfRange
	}

	gross := s.cfg.PayoutMin
	if s.cfg.Max > s.cfg.Min {
		gross += (amount - s.cfg.Min) * (s.cfg.PayoutMax - s.cfg.PayoutMin) / (s.cfg.Max - s.cfg.Min)
	}
	commission := gross * int64(s.cfg.CommissionPct) / 100

	return Quote{
		LuminariasAmount: amount,
		GrossAmount:      gross,
		CommissionAmount: commission,
		NetAmount:        gross - commission,
	}, nil
}

// RequestConversion validates the band and eligibility, debits the amount
// immediately and creates the pending request — one database transaction,
// so the funds cannot be double-spent while the request is outstanding.
func (s *Service) RequestConversion(ctx context.Context, userID uuid.UUID, amount int64, method, details, userRole string) (*ConversionRequest, error) {
	quote, err := s.QuoteConversion(amount)
	if err != nil {
		return nil, err
	}

	level, err := s.levels.CreatorLevel(ctx, userID)
	if err != nil {
		return nil, err
	}
	if level < s.cfg.MinLevel {
		return nil, ErrNotEligible
	}

	tx, err := s.ledger.Repo().BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	requestID := uuid.New()
	txID, err := s.ledger.ApplyTx(ctx, tx, userID, ledger.TypeConversion, amount, ledger.Classification{
		UserRole:    userRole,
		Category:    "conversion",
		Subcategory: "request",
		ActionType:  "debit",
		Description: "Conversion request reservation",
	}, ledger.Reference{ID: requestID.String(), Type: "conversion_request"}, ledger.TxOptions{})
	if err != nil {
		return nil, err
	}

	req := &ConversionRequest{
		ID:               requestID,
		UserID:           userID,
		LuminariasAmount: quote.LuminariasAmount,
		GrossAmount:      quote.GrossAmount,
		CommissionAmount: quote.CommissionAmount,
		NetAmount:        quote.NetAmount,
		PaymentMethod:    method,
		PaymentDetails:   details,
		Status:           StatusPending,
		TransactionID:    uuid.NullUUID{UUID: txID, Valid: true},
	}
	if err := s.repo.CreateConversion(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("user_id", userID.String()).
		Int64("luminarias", amount).
		Int64("net", quote.NetAmount).
		Msg("conversion request created")
	return req, nil
}

// ReviewConversion resolves a pending request. Approval settles with no
// balance change (funds were debited at request time, the real-money side
// settles out-of-band). Rejection refunds the original amount in the SAME
// database transaction as the status flip: a rejected request with no
// refund is never observable.
func (s *Service) ReviewConversion(ctx context.Context, requestID uuid.UUID, action ReviewAction, adminID uuid.UUID, notes string) (*ConversionRequest, error) {
	tx, err := s.ledger.Repo().BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	req, err := s.repo.GetConversionForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyProcessed
	}

	status := StatusProcessed
	if action == ActionReject {
		status = StatusRejected
		if _, err := s.ledger.ApplyTx(ctx, tx, req.UserID, ledger.TypeEarn, req.LuminariasAmount, ledger.Classification{
			Category:    "conversion",
			Subcategory: "reject",
			ActionType:  "refund",
			Description: "Conversion request rejected",
		}, ledger.Reference{ID: req.ID.String(), Type: "conversion_request"}, ledger.TxOptions{}); err != nil {
			return nil, err
		}
	}

	if err := s.repo.ResolveConversion(ctx, tx, req.ID, status, adminID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	req.Status = status
	req.ReviewedBy = uuid.NullUUID{UUID: adminID, Valid: true}
	log.Info().
		Str("request_id", req.ID.String()).
		Str("action", string(action)).
		Str("admin_id", adminID.String()).
		Msg("conversion request reviewed")
	return req, nil
}

// RequestWithdrawal reserves the amount (spend leg) and creates a pending
// withdrawal request with the processing fee deducted from the payout.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount int64, method, details, userRole string) (*WithdrawalRequest, error) {
	if amount < s.cfg.WithdrawalMin {
		return nil, ErrOutOfRange
	}

	fee := amount * int64(s.cfg.WithdrawalFeePct) / 100

	tx, err := s.ledger.Repo().BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	requestID := uuid.New()
	txID, err := s.ledger.ApplyTx(ctx, tx, userID, ledger.TypeSpend, amount, ledger.Classification{
		UserRole:    userRole,
		Category:    "withdrawal",
		Subcategory: "request",
		ActionType:  "debit",
		Description: "Withdrawal request reservation",
	}, ledger.Reference{ID: requestID.String(), Type: "withdrawal_request"}, ledger.TxOptions{})
	if err != nil {
		return nil, err
	}

	req := &WithdrawalRequest{
		ID:             requestID,
		UserID:         userID,
		OriginalAmount: amount,
		ProcessingFee:  fee,
		FinalAmount:    amount - fee,
		PaymentMethod:  method,
		PaymentDetails: details,
		Status:         WithdrawalPending,
		TransactionID:  uuid.NullUUID{UUID: txID, Valid: true},
	}
	if err := s.repo.CreateWithdrawal(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Msg("withdrawal request created")
	return req, nil
}

// ReviewWithdrawal resolves a pending withdrawal exactly once, with the
// same reject-and-refund atomicity as conversions.
func (s *Service) ReviewWithdrawal(ctx context.Context, requestID uuid.UUID, action ReviewAction, adminID uuid.UUID, notes string) (*WithdrawalRequest, error) {
	tx, err := s.ledger.Repo().BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	req, err := s.repo.GetWithdrawalForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != WithdrawalPending {
		return nil, ErrAlreadyProcessed
	}

	status := WithdrawalCompleted
	if action == ActionReject {
		status = WithdrawalRejected
		if _, err := s.ledger.ApplyTx(ctx, tx, req.UserID, ledger.TypeEarn, req.OriginalAmount, ledger.Classification{
			Category:    "withdrawal",
			Subcategory: "reject",
			ActionType:  "refund",
			Description: "Withdrawal request rejected",
		}, ledger.Reference{ID: req.ID.String(), Type: "withdrawal_request"}, ledger.TxOptions{}); err != nil {
			return nil, err
		}
	}

	if err := s.repo.ResolveWithdrawal(ctx, tx, req.ID, status, adminID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	req.Status = status
	req.ReviewedBy = uuid.NullUUID{UUID: adminID, Valid: true}
	log.Info().
		Str("request_id", req.ID.String()).
		Str("action", string(action)).
		Str("admin_id", adminID.String()).
		Msg("withdrawal request reviewed")
	return req, nil
}

// ListConversions returns a user's conversion requests.
func (s *Service) ListConversions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ConversionRequest, error) {
	return s.repo.ListConversionsByUser(ctx, userID, limit, offset)
}

// ListWithdrawals returns a user's withdrawal requests.
func (s *Service) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]WithdrawalRequest, error) {
	return s.repo.ListWithdrawalsByUser(ctx, userID, limit, offset)
}

// PendingConversions returns the admin review queue, oldest first.
func (s *Service) PendingConversions(ctx context.Context, limit, offset int) ([]ConversionRequest, error) {
	return s.repo.ListPendingConversions(ctx, limit, offset)
}

// PendingWithdrawals returns the admin review queue, oldest first.
func (s *Service) PendingWithdrawals(ctx context.Context, limit, offset int) ([]WithdrawalRequest, error) {
	return s.repo.ListPendingWithdrawals(ctx, limit, offset)
}
