package marketplace

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

func (r *Repository) CreateService(ctx context.Context, s *ServiceListing) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO marketplace_services (id, provider_id, title, description, price, max_clients, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.ProviderID, s.Title, s.Description, s.Price, s.MaxClients, s.Active)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (r *Repository) GetService(ctx context.Context, id uuid.UUID) (*ServiceListing, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s ServiceListing
	err := r.db.GetContext(ctx2, &s, `SELECT * FROM marketplace_services WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &s, nil
}

func (r *Repository) ListServices(ctx context.Context, limit, offset int) ([]ServiceListing, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	services := make([]ServiceListing, 0)
	err := r.db.SelectContext(ctx2, &services, `
		SELECT * FROM marketplace_services
		WHERE active = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// GetServiceForUpdate locks the listing row. Booking capacity checks run
// against this locked row so concurrent bookings are serialized.
func (r *Repository) GetServiceForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*ServiceListing, error) {
	var s ServiceListing
	err := tx.GetContext(ctx, &s, `SELECT * FROM marketplace_services WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("lock service: %w", err)
	}
	return &s, nil
}

func (r *Repository) AdjustClientCount(ctx context.Context, tx *sqlx.Tx, serviceID uuid.UUID, delta int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE marketplace_services
		SET current_clients = current_clients + $2, updated_at = now()
		WHERE id = $1
	`, serviceID, delta)
	if err != nil {
		return fmt.Errorf("adjust client count: %w", err)
	}
	return nil
}

func (r *Repository) CreateBooking(ctx context.Context, tx *sqlx.Tx, b *Booking) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO marketplace_bookings (id, service_id, client_id, provider_id, transaction_id, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.ServiceID, b.ClientID, b.ProviderID, b.TransactionID, b.TotalPrice, string(b.Status))
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// GetBookingForUpdate locks the booking row so terminal-state transitions
// happen exactly once.
func (r *Repository) GetBookingForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := tx.GetContext(ctx, &b, `SELECT * FROM marketplace_bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	return &b, nil
}

func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Booking
	err := r.db.GetContext(ctx2, &b, `SELECT * FROM marketplace_bookings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

func (r *Repository) SetBookingStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status BookingStatus) error {
	var query string
	switch status {
	case StatusCompleted:
		query = `UPDATE marketplace_bookings SET status = $2, completed_at = now() WHERE id = $1`
	case StatusCancelled:
		query = `UPDATE marketplace_bookings SET status = $2, cancelled_at = now() WHERE id = $1`
	default:
		query = `UPDATE marketplace_bookings SET status = $2 WHERE id = $1`
	}
	if _, err := tx.ExecContext(ctx, query, id, string(status)); err != nil {
		return fmt.Errorf("set booking status: %w", err)
	}
	return nil
}

// ListBookingsByUser returns bookings where the user is client or provider.
func (r *Repository) ListBookingsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	bookings := make([]Booking, 0)
	err := r.db.SelectContext(ctx2, &bookings, `
		SELECT * FROM marketplace_bookings
		WHERE client_id = $1 OR provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
