package marketplace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/luminaria/luminaria-api/internal/domain/ledger"
)

// Service implements paid bookings with escrow semantics: the client is
// debited when the booking is created, and the provider is credited (minus
// the platform commission) only when the booking completes. Every money
// movement goes through the ledger inside the same database transaction
// that mutates the booking.
type Service struct {
	repo          *Repository
	ledger        *ledger.Service
	commissionPct int
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, commissionPct int) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, commissionPct: commissionPct}
}

// CreateListing publishes a new service listing.
func (s *Service) CreateListing(ctx context.Context, providerID uuid.UUID, title, description string, price int64, maxClients int) (*ServiceListing, error) {
	if price <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	listing := &ServiceListing{
		ID:          uuid.New(),
		ProviderID:  providerID,
		Title:       title,
		Description: description,
		Price:       price,
		MaxClients:  maxClients,
		Active:      true,
	}
	if err := s.repo.CreateService(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// ListServices returns active listings.
func (s *Service) ListServices(ctx context.Context, limit, offset int) ([]ServiceListing, error) {
	return s.repo.ListServices(ctx, limit, offset)
}

// GetBooking returns one booking.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// ListBookings returns bookings the user participates in.
func (s *Service) ListBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	return s.repo.ListBookingsByUser(ctx, userID, limit, offset)
}

// Book debits the client for the full listed price and creates the booking
// in the confirmed state. The listing row lock serializes capacity checks.
func (s *Service) Book(ctx context.Context, serviceID, clientID uuid.UUID, clientRole string) (*Booking, error) {
	tx, err := s.ledger.Repo().BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	listing, err := s.repo.GetServiceForUpdate(ctx, tx, serviceID)
	if err != nil {
		return nil, err
	}
	if !listing.Active {
		return nil, ErrInactiveService
	}
	if listing.ProviderID == clientID {
		return nil, ErrOwnService
	}
	if listing.MaxClients > 0 && listing.CurrentClients >= listing.MaxClients {
		return nil, ErrCapacityExceeded
	}

	bookingID := uuid.New()
	txID, err := s.ledger.ApplyTx(ctx, tx, clientID, ledger.TypeSpend, listing.Price, ledger.Classification{
		UserRole:    clientRole,
		Category:    "marketplace",
		Subcategory: "booking",
		ActionType:  "payment",
		Description: "Booking: " + listing.Title,
	}, ledger.Reference{ID: bookingID.String(), Type: "booking"}, ledger.TxOptions{})
	if err != nil {
		return nil, err
	}

	booking := &Booking{
		ID:            bookingID,
		ServiceID:     listing.ID,
		ClientID:      clientID,
		ProviderID:    listing.ProviderID,
		TransactionID: uuid.NullUUID{UUID: txID, Valid: true},
		TotalPrice:    listing.Price,
		Status:        StatusConfirmed,
	}
	if err := s.repo.CreateBooking(ctx, tx, booking); err != nil {
		return nil, err
	}
	if err := s.repo.AdjustClientCount(ctx, tx, listing.ID, +1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	log.Info().
		Str("booking_id", booking.ID.String()).
		Str("client_id", clientID.String()).
		Str("provider_id", listing.ProviderID.String()).
		Int64("price", listing.Price).
		Msg("booking confirmed")
	return booking, nil
}

// Commission returns the platform's cut of the given price.
func (s *Service) Commission(price int64) int64 {
	return price * int64(s.commissionPct) / 100
}

// Complete credits the provider with the price minus commission and closes
// the booking. Only the booking's provider may call it; only the confirmed
// state is valid. The commission is retained implicitly as the reduced
// credit; no separate ledger entry is produced for it.
func (s *Service) Complete(ctx context.Context, bookingID, actingProviderID uuid.UUID) (*Booking, error) {
	tx, err := s.ledger.Repo().BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	booking, err := s.repo.GetBookingForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != actingProviderID {
		return nil, ErrNotProvider
	}
	if booking.Status != StatusConfirmed {
		return nil, ErrInvalidState
	}

	commission := s.Commission(booking.TotalPrice)
	payout := booking.TotalPrice - commission

	if _, err := s.ledger.ApplyTx(ctx, tx, booking.ProviderID, ledger.TypeEarn, payout, ledger.Classification{
		UserRole:    "creator",
		Category:    "marketplace",
		Subcategory: "booking",
		ActionType:  "payout",
		Description: "Booking payout",
	}, ledger.Reference{ID: booking.ID.String(), Type: "booking"}, ledger.TxOptions{}); err != nil {
		return nil, err
	}

	if err := s.repo.SetBookingStatus(ctx, tx, booking.ID, StatusCompleted); err != nil {
		return nil, err
	}
	if err := s.repo.AdjustClientCount(ctx, tx, booking.ServiceID, -1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	booking.Status = StatusCompleted
	log.Info().
		Str("booking_id", booking.ID.String()).
		Int64("payout", payout).
		Int64("commission", commission).
		Msg("booking completed")
	return booking, nil
}

// Cancel refunds the client the full amount and closes the booking. Either
// participant may cancel a confirmed booking.
func (s *Service) Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*Booking, error) {
	tx, err := s.ledger.Repo().BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ledger.ErrInternal, err)
	}
	defer tx.Rollback()

	booking, err := s.repo.GetBookingForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != booking.ClientID && actorID != booking.ProviderID {
		return nil, ErrNotParticipant
	}
	if booking.Status != StatusConfirmed {
		return nil, ErrInvalidState
	}

	if _, err := s.ledger.ApplyTx(ctx, tx, booking.ClientID, ledger.TypeEarn, booking.TotalPrice, ledger.Classification{
		Category:    "marketplace",
		Subcategory: "booking",
		ActionType:  "refund",
		Description: "Booking refund",
	}, ledger.Reference{ID: booking.ID.String(), Type: "booking"}, ledger.TxOptions{}); err != nil {
		return nil, err
	}

	if err := s.repo.SetBookingStatus(ctx, tx, booking.ID, StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.repo.AdjustClientCount(ctx, tx, booking.ServiceID, -1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrIndeterminate, err)
	}

	booking.Status = StatusCancelled
	log.Info().
		Str("booking_id", booking.ID.String()).
		Int64("refund", booking.TotalPrice).
		Msg("booking cancelled")
	return booking, nil
}
