package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/luminaria/luminaria-api/internal/domain/ledger"
)

// Result carries the two linked transaction IDs of a committed transfer.
type Result struct {
	OutTxID uuid.UUID `json:"out_tx_id"`
	InTxID  uuid.UUID `json:"in_tx_id"`
}

// Service moves Luminarias between two users as one all-or-nothing
// operation: both ledger legs commit, or neither does.
type Service struct {
	ledger *ledger.Service
}

func NewService(ledgerSvc *ledger.Service) *Service {
	return &Service{ledger: ledgerSvc}
}

// Transfer debits fromID and credits toID inside one database transaction.
// Both account rows are locked in ascending UUID order before either leg
// runs, so two opposite-direction transfers on the same pair cannot
// deadlock.
func (s *Service) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, description, fromRole string) (*Result, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if fromID == toID || toID == uuid.Nil {
		return nil, ErrInvalidTarget
	}

	repo := s.ledger.Repo()
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	// Fixed total order on the two row locks
	first, second := fromID, toID
	if second.String() < first.String() {
		first, second = second, first
	}
	for _, id := range []uuid.UUID{first, second} {
		if _, err := repo.LockAccount(ctx, tx, id); err != nil {
			if errors.Is(err, ledger.ErrAccountNotFound) && id == toID {
				return nil, ErrInvalidTarget
			}
			return nil, err
		}
	}

	ref := ledger.Reference{ID: fromID.String() + ":" + toID.String(), Type: "transfer"}
	opts := ledger.TxOptions{FromUserID: fromID, ToUserID: toID}

	outTxID, err := s.ledger.ApplyTx(ctx, tx, fromID, ledger.TypeTransferOut, amount, ledger.Classification{
		UserRole:    fromRole,
		Category:    "transfer",
		Subcategory: "peer",
		ActionType:  "out",
		Description: description,
	}, ref, opts)
	if err != nil {
		return nil, err
	}

	inTxID, err := s.ledger.ApplyTx(ctx, tx, toID, ledger.TypeTransferIn, amount, ledger.Classification{
		Category:    "transfer",
		Subcategory: "peer",
		ActionType:  "in",
		Description: description,
	}, ref, opts)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	log.Info().
		Str("from", fromID.String()).
		Str("to", toID.String()).
		Int64("amount", amount).
		Msg("transfer committed")
	return &Result{OutTxID: outTxID, InTxID: inTxID}, nil
}
